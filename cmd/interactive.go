package cmd

import (
	"io"
	"log"

	"github.com/abiosoft/readline"
	"github.com/spf13/cobra"
)

// interactiveCmd reads directives from a prompt, one line at a time.
var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Read directives from a prompt.",
	Long: `Read directives from a prompt.

Every line runs against the same descriptors and commands, so a pipe opened on
one line can be used by a --command on the next and a later --wait reports
commands launched earlier. A failing line is reported and the prompt
continues.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "[osh] ", 0)
		cfg, err := loadConfig(logger, cfgPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}

		rlConfig := &readline.Config{
			Prompt: "osh> ",
			Stdin:  readline.NewCancelableStdin(cmd.InOrStdin()),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		}
		if err := rlConfig.Init(); err != nil {
			return err
		}
		rl, err := readline.NewEx(rlConfig)
		if err != nil {
			return err
		}
		defer rl.Close()

		sess, err := newSession(cfg, sessionOptions{
			Mode:   "interactive",
			Out:    rl.Stdout(),
			ErrOut: rl.Stderr(),
		})
		if err != nil {
			return err
		}
		defer sess.Close()

		return interact(sess, rl, logger)
	},
}

// lineReader is the part of readline the prompt loop needs.
type lineReader interface {
	Readline() (string, error)
}

// interact runs each line from lines against sess until the input ends. A
// failing line is reported and the loop carries on with the same engine.
func interact(sess *session, lines lineReader, logger *log.Logger) error {
	for {
		line, err := lines.Readline()
		switch {
		case err == io.EOF:
			return nil
		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue
		case err != nil:
			logger.Printf("Error readline: %v", err)
			continue
		}

		tokens, err := splitLine(line)
		if err != nil {
			sess.diag.Error(err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		// Run already reported the failure.
		_ = sess.Run(tokens)
	}
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
