package cmd

import (
	"log"
	"strings"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run DIRECTIVE...",
	Short: "Run the directives given on the command line.",
	Example: `  osh run --rdonly in.txt --creat --trunc --wronly out.txt \
    --command 0 1 e tr a-z A-Z --wait`,
	// Directives look like flags, they're parsed by the directive driver.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		path, explicit, directives := splitConfigFlag(cfgPath, args)
		cfg, err := loadConfig(log.New(cmd.ErrOrStderr(), "[osh] ", 0), path, explicit)
		if err != nil {
			return err
		}

		sess, err := newSession(cfg, sessionOptions{
			Mode:   "run",
			Tokens: directives,
			Out:    cmd.OutOrStdout(),
			ErrOut: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		defer sess.Close()

		return sess.Run(directives)
	},
}

// splitConfigFlag strips leading --config flags from args. Flag parsing is off
// for run, so they arrive mixed in with the directives.
func splitConfigFlag(path string, args []string) (string, bool, []string) {
	explicit := false
	for len(args) > 0 {
		switch {
		case args[0] == "--config" && len(args) > 1:
			path, args = args[1], args[2:]
		case strings.HasPrefix(args[0], "--config="):
			path, args = strings.TrimPrefix(args[0], "--config="), args[1:]
		default:
			return path, explicit, args
		}
		explicit = true
	}
	return path, explicit, args
}

func init() {
	rootCmd.AddCommand(runCmd)
}
