package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func addLink(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "link <identity>",
		Short: "Link a planner account to an identity.",
		Long: `Link a planner account to an authenticated identity. Linking an identity
that already has an account prints the existing account id.`,
		Example: `
planner link tg:123456
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			rt, err := open(g, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			flyID, err := rt.auth.Link(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("link %s: %w", args[0], err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", args[0], color.New(color.Bold).Sprint(flyID))
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}

func addAccounts(topLevel *cobra.Command, g *globalOptions) {
	prefix := ""
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List linked identities.",
		Example: `
planner accounts
planner accounts --prefix tg:
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			rt, err := open(g, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			identities, err := rt.auth.Identities(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("IDENTITY"), bold.Sprint("ACCOUNT"))
			for _, id := range identities {
				tbl.AddRow(id.AuthUserID, id.FlyID)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only identities starting with this prefix.")

	topLevel.AddCommand(cmd)
}
