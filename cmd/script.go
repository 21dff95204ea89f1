package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script FILE",
	Short: "Run directives read from a file.",
	Long: `Run directives read from a file.

Each line is split into tokens with POSIX shell quoting rules and the tokens of
all lines are run as one stream, so a --command may continue on the next
line. Blank lines and lines starting with # are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(log.New(cmd.ErrOrStderr(), "[osh] ", 0), cfgPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}

		fd, err := afero.NewOsFs().Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		tokens, err := readScript(fd)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		sess, err := newSession(cfg, sessionOptions{
			Mode:   "script",
			Tokens: tokens,
			Out:    cmd.OutOrStdout(),
			ErrOut: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		defer sess.Close()

		return sess.Run(tokens)
	},
}

// readScript tokenizes every line of r.
func readScript(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		lineTokens, err := splitLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		tokens = append(tokens, lineTokens...)
	}
	return tokens, scanner.Err()
}

// splitLine tokenizes one line of directives, comments and blank lines have
// no tokens.
func splitLine(line string) ([]string, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, nil
	}
	return shlex.Split(trimmed, true)
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}
