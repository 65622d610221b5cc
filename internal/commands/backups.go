package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"flynesis-planner/internal/backup"
)

func addBackups(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List, prune and restore account backups.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addBackupsList(cmd, g)
	addBackupsPrune(cmd, g)
	addBackupsRestore(cmd, g)

	topLevel.AddCommand(cmd)
}

func addBackupsList(parent *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "list <identity>",
		Short: "List an account's backups, newest first.",
		Example: `
planner backups list tg:123456
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			rt, err := open(g, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			flyID, err := rt.account(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			loc, err := rt.cfg.Location()
			if err != nil {
				return err
			}

			keys := rt.backups.List(cmd.Context(), flyID)
			if len(keys) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), color.New(color.Faint).Sprint("no backups"))
				return nil
			}
			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("KEY"), bold.Sprint("TAKEN"))
			for _, key := range keys {
				taken := "?"
				if at, err := backup.Taken(key); err == nil {
					taken = at.In(loc).Format(time.DateTime)
				}
				tbl.AddRow(key, taken)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}

	parent.AddCommand(cmd)
}

func addBackupsPrune(parent *cobra.Command, g *globalOptions) {
	keep := keepBackups
	cmd := &cobra.Command{
		Use:   "prune <identity>",
		Short: "Delete all but the newest backups of an account.",
		Example: `
planner backups prune tg:123456 --keep 3
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			rt, err := open(g, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			flyID, err := rt.account(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			removed, err := rt.backups.Prune(cmd.Context(), flyID, keep)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d backups\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", keepBackups, "How many backups to keep.")

	parent.AddCommand(cmd)
}

func addBackupsRestore(parent *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "restore <identity> [key]",
		Short: "Import a backup back into its account.",
		Long: `Import a backup back into its account. Without a key the newest backup
is restored. The current data is backed up first, like any import.`,
		Example: `
planner backups restore tg:123456
planner backups restore tg:123456 3f0c.../20240610T120000.000Z
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			rt, err := open(g, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			flyID, err := rt.account(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var key string
			var data []byte
			if len(args) == 2 {
				key = args[1]
				if !rt.backups.Owns(flyID, key) {
					return fmt.Errorf("backup %s does not belong to %s", key, args[0])
				}
				data, err = rt.backups.Read(key)
			} else {
				key, data, err = rt.backups.Latest(cmd.Context(), flyID)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "restoring %s\n", key)
			return rt.importData(cmd.Context(), cmd.OutOrStdout(), flyID, data)
		},
	}

	parent.AddCommand(cmd)
}
