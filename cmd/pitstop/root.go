package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/log"
)

const envPrefix = "PITSTOP"

type rootOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "pitstop",
		Short:         "Eco racing from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(v, opts.cfgFile, cmd); err != nil {
				return err
			}
			_, err := log.Init(opts.logLevel, opts.logFormat)
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "",
		"config file (default is $HOME/.pitstop.yml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn",
		"log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "console",
		"log format (json or console)")

	cmd.AddCommand(newRaceCmd())
	cmd.AddCommand(newQuizCmd())
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

// initConfig reads the optional config file and environment, then pushes
// the values into every flag the user did not set explicitly.
func initConfig(v *viper.Viper, cfgFile string, cmd *cobra.Command) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".pitstop")
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	for c := cmd; c != nil; c = c.Parent() {
		bindFlags(c, v)
	}
	return nil
}

// bindFlags maps --eco-bonus to PITSTOP_ECO_BONUS and to the eco-bonus
// key of the config file.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "could not bind env var %s: %v\n", f.Name, err)
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "could not set flag value for %s: %v\n", f.Name, err)
			}
		}
	})
}
