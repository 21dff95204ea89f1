package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/josephlewis42/osh/core/config"
	"github.com/josephlewis42/osh/core/proc"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var cfgPath string

// loadConfig reads osh.yaml from path, falling back to the built in defaults
// when there is none. The fallback is only worth mentioning if the user
// asked for a specific path.
func loadConfig(logger *log.Logger, path string, explicit bool) (*config.Configuration, error) {
	fsys := afero.NewOsFs()
	configuration, err := config.Load(fsys, path)

	if errors.Is(err, fs.ErrNotExist) {
		if explicit {
			logger.Printf("Couldn't load config from %q, using defaults: did you run init?\n", path)
		}
		return config.Default(fsys, path), nil
	}

	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "osh",
	Short: "Build process pipelines from directives",
	Long: `osh opens files and pipes, launches commands with chosen standard
streams and reports how they finished, all driven by directives such as:

  osh run --rdonly in.txt --creat --wronly out.txt --command 0 1 e sort --wait`,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
//
// Directive failures have already been reported when they get here, they only
// decide the exit status.
func Execute() {
	err := rootCmd.Execute()

	var perr *proc.Error
	if errors.As(err, &perr) {
		os.Exit(perr.ExitStatus())
	}
	cobra.CheckErr(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
}
