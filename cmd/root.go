// Package cmd implements the raytrace command line interface.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "raytrace",
	Short: "Sequential optical ray tracer",
	Long: `raytrace traces ray bundles through optical systems described by
JSON system files: surfaces, materials, coatings, apertures and fields.`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("config", "", "config file (default ./raytrace.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log trace progress to stderr")
	rootCmd.PersistentFlags().String("device", "cpu", "compute device")
	for _, flag := range []string{"verbose", "device"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	if cfg, _ := rootCmd.PersistentFlags().GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.SetConfigName("raytrace")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("raytrace")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "raytrace: reading config: %v\n", err)
		}
	}
}
