package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/mlbatch/pkg/workers"
)

var configOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved pipeline configuration",
	Long: `Prints the effective configuration after merging the config file,
environment variables and flags, together with the worker budget the next
run would use on this host.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configOutput, "output", "o", "yaml", "Output format: yaml, json")
}

type resolvedConfig struct {
	InputDir          string   `json:"input_dir" yaml:"input_dir"`
	ExperimentDir     string   `json:"experiment_dir" yaml:"experiment_dir"`
	ClassLabel        string   `json:"class_label" yaml:"class_label"`
	InstanceLabel     string   `json:"instance_label,omitempty" yaml:"instance_label,omitempty"`
	CVFolds           int      `json:"cv_folds" yaml:"cv_folds"`
	Seed              int64    `json:"seed" yaml:"seed"`
	FeatureAlgorithms []string `json:"feature_algorithms" yaml:"feature_algorithms"`
	ModelAlgorithms   []string `json:"model_algorithms" yaml:"model_algorithms"`
	Exclude           []string `json:"exclude" yaml:"exclude"`
	Workers           int      `json:"workers" yaml:"workers"`
	MetricsListen     string   `json:"metrics_listen,omitempty" yaml:"metrics_listen,omitempty"`
	History           bool     `json:"history" yaml:"history"`

	HostLogicalCores int `json:"host_logical_cores" yaml:"host_logical_cores"`
	EffectiveWorkers int `json:"effective_workers" yaml:"effective_workers"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cores, err := cpu.Counts(true)
	if err != nil || cores < 1 {
		cores = runtime.NumCPU()
	}

	resolved := resolvedConfig{
		InputDir:          viper.GetString("input_dir"),
		ExperimentDir:     viper.GetString("experiment_dir"),
		ClassLabel:        viper.GetString("class_label"),
		InstanceLabel:     viper.GetString("instance_label"),
		CVFolds:           viper.GetInt("cv_folds"),
		Seed:              viper.GetInt64("seed"),
		FeatureAlgorithms: viper.GetStringSlice("feature_algorithms"),
		ModelAlgorithms:   viper.GetStringSlice("model_algorithms"),
		Exclude:           viper.GetStringSlice("exclude"),
		Workers:           viper.GetInt("workers"),
		MetricsListen:     viper.GetString("metrics_listen"),
		History:           viper.GetBool("history"),
		HostLogicalCores:  cores,
		EffectiveWorkers:  workers.Budget(viper.GetInt("workers")),
	}

	switch configOutput {
	case "json":
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	default:
		data, err := yaml.Marshal(resolved)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
	}
	return nil
}
