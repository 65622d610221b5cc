package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"flynesis-planner/internal/ics"
	"flynesis-planner/internal/storage"
)

type outputOptions struct {
	path string
}

func addOutputArg(cmd *cobra.Command, o *outputOptions) {
	cmd.Flags().StringVarP(&o.path, "output", "o", "", "Write to this file instead of stdout.")
}

func (o *outputOptions) write(cmd *cobra.Command, data []byte) error {
	if o.path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(o.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", o.path, err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", o.path, len(data))
	return nil
}

func addExport(topLevel *cobra.Command, g *globalOptions) {
	o := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "export <identity>",
		Short: "Export an account as JSON.",
		Example: `
planner export tg:123456 > planner.json
planner export tg:123456 -o planner.json
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
			return o.write(cmd, rt.store.Export(cmd.Context(), flyID))
		},
	}
	addOutputArg(cmd, o)

	topLevel.AddCommand(cmd)
}

func addICS(topLevel *cobra.Command, g *globalOptions) {
	o := &outputOptions{}
	cmd := &cobra.Command{
		Use:   "ics <identity>",
		Short: "Export an account's events as an iCalendar file.",
		Example: `
planner ics tg:123456 -o planner.ics
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
			calendar, skipped := ics.Export(rt.store.Events(cmd.Context(), flyID), loc, time.Now())
			if skipped > 0 {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s %d events with broken dates were left out\n",
					color.YellowString("warning:"), skipped)
			}
			return o.write(cmd, []byte(calendar))
		},
	}
	addOutputArg(cmd, o)

	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command, g *globalOptions) {
	cmd := &cobra.Command{
		Use:   "import <identity> <file>",
		Short: "Replace an account's data with an export file.",
		Long: `Replace the events, tasks and focus sessions of an account with the
contents of an export file. Settings are replaced only when the file has them.
The file is checked first and a backup is taken before anything changes.
Use - to read from stdin.`,
		Example: `
planner import tg:123456 planner.json
`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			rt, err := open(g, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			flyID, err := rt.account(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.importData(cmd.Context(), cmd.OutOrStdout(), flyID, data)
		},
	}

	topLevel.AddCommand(cmd)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// importData validates, backs up and imports. Nothing changes when the
// document is malformed or the backup fails.
func (r *runtime) importData(ctx context.Context, out io.Writer, flyID string, data []byte) error {
	if err := storage.Validate(data); err != nil {
		return fmt.Errorf("not a planner export: %w", err)
	}
	key, err := r.backupBefore(ctx, flyID)
	if err != nil {
		return fmt.Errorf("backup before import: %w", err)
	}

	report, ok := r.store.Import(ctx, flyID, data)

	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("Events"), report.Events)
	tbl.AddRow(bold.Sprint("Tasks"), report.Tasks)
	tbl.AddRow(bold.Sprint("Focus sessions"), report.Sessions)
	tbl.AddRow(bold.Sprint("Settings"), report.Settings)
	tbl.AddRow(bold.Sprint("Failed"), report.Failed)
	tbl.AddRow(bold.Sprint("Backup"), key)
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(out, tbl)

	switch {
	case !ok:
		return errors.New("import did not finish, restore the backup above")
	case report.Failed > 0:
		return fmt.Errorf("%d records were not saved", report.Failed)
	}
	_, _ = fmt.Fprintln(out, color.GreenString("import finished"))
	return nil
}

func addReset(topLevel *cobra.Command, g *globalOptions) {
	yes := false
	cmd := &cobra.Command{
		Use:   "reset <identity>",
		Short: "Delete all events, tasks and focus sessions of an account.",
		Long: `Delete all events, tasks and focus sessions of an account. Settings stay.
A backup is taken first. Requires --yes.`,
		Example: `
planner reset tg:123456 --yes
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if !yes {
				return errors.New("reset deletes everything but settings, pass --yes to confirm")
			}
			rt, err := open(g, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			flyID, err := rt.account(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			key, err := rt.backupBefore(cmd.Context(), flyID)
			if err != nil {
				return fmt.Errorf("backup before reset: %w", err)
			}
			if !rt.store.Reset(cmd.Context(), flyID) {
				return fmt.Errorf("reset did not finish, backup %s", key)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s backup %s\n", color.GreenString("cleared."), key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset.")

	topLevel.AddCommand(cmd)
}
