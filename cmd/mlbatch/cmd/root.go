package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mlbatch",
	Short: "Resumable multi-phase analysis pipeline for tabular datasets",
	Long: `mlbatch runs a fixed sequence of analysis phases (exploration, data
processing, feature scoring, feature selection, modeling, statistics,
cross-dataset comparison, reporting) over one or more tabular datasets split
into cross-validation folds.

Each phase fully finishes before the next begins. Completed jobs leave
durable markers under the experiment directory, so re-invoking an
interrupted run skips finished work instead of redoing it.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./mlbatch.yaml)")
	rootCmd.PersistentFlags().String("experiment-dir", "", "experiment output directory")
	rootCmd.PersistentFlags().String("log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")

	viper.BindPFlag("experiment_dir", rootCmd.PersistentFlags().Lookup("experiment-dir"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("mlbatch")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MLBATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("input_dir", "./data")
	viper.SetDefault("experiment_dir", "./experiment")
	viper.SetDefault("class_label", "Class")
	viper.SetDefault("instance_label", "")
	viper.SetDefault("cv_folds", 3)
	viper.SetDefault("seed", 42)
	viper.SetDefault("feature_algorithms", []string{"MI", "MS"})
	viper.SetDefault("model_algorithms", []string{})
	viper.SetDefault("exclude", []string{"XCS", "eLCS"})
	viper.SetDefault("workers", 0) // 0 = resolve from environment / host cores
	viper.SetDefault("metrics_listen", "")
	viper.SetDefault("history", true)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}
