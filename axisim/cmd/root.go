// Package cmd provides the command-line interface of axisim.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

// EnvPrefix prefixes the environment variables that give flag defaults.
const EnvPrefix = "AXISIM_"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "axisim",
	Short: "axisim simulates an AXI4-Lite master and slave at clock-edge level.",
	Long: `axisim simulates an AXI4-Lite master and slave at clock-edge ` +
		`level. Flags not given on the command line are read from ` +
		EnvPrefix + `* environment variables, which may be set in a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := loadEnvFile(envFile); err != nil {
			return err
		}

		if err := applyEnvDefaults(cmd.Flags()); err != nil {
			return err
		}

		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			log.SetLevel(log.DebugLevel)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env",
		"file to load environment defaults from")
	rootCmd.PersistentFlags().Bool("debug", false, "log at debug level")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadEnvFile loads the variables of a .env file without overriding the ones
// already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// EnvName returns the environment variable that gives the default of a flag.
func EnvName(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyEnvDefaults sets every flag not given on the command line from its
// environment variable, if present.
func applyEnvDefaults(flags *pflag.FlagSet) error {
	var errs []error

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "env-file" {
			return
		}

		value, found := os.LookupEnv(EnvName(f.Name))
		if !found {
			return
		}

		if err := flags.Set(f.Name, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvName(f.Name), err))
		}
	})

	return errors.Join(errs...)
}
