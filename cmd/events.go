package cmd

import (
	"fmt"
	"io"
	"log"

	"github.com/josephlewis42/osh/core/eventlog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the event log.",
}

var reportCommand = &cobra.Command{
	Use:   "report [FILE]",
	Short: "Show a report of events, from FILE or the configured event_log.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var fd io.ReadCloser
		if len(args) == 1 {
			f, err := afero.NewOsFs().Open(args[0])
			if err != nil {
				return err
			}
			fd = f
		} else {
			cfg, err := loadConfig(log.New(cmd.ErrOrStderr(), "[osh] ", 0), cfgPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			f, err := cfg.ReadEventLog()
			if err != nil {
				return err
			}
			fd = f
		}
		defer fd.Close()

		report, err := buildReport(fd)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	},
}

func buildReport(r io.Reader) (*eventlog.Report, error) {
	report := eventlog.NewReport()
	if err := eventlog.ReadJSONLinesLog(r, report.Update); err != nil {
		return nil, err
	}
	return report, nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
}
