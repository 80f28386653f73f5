package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/mlbatch/pkg/layout"
	"github.com/psantana5/mlbatch/pkg/ledger"
	"github.com/psantana5/mlbatch/pkg/store"
)

var statusShowRuns bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show completed jobs and past runs for an experiment",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusShowRuns, "runs", false, "also list past runs from the history database")
}

func runStatus(cmd *cobra.Command, args []string) error {
	root := viper.GetString("experiment_dir")
	lay := layout.New(root)
	led := ledger.NewFileLedger(lay)

	keys, err := led.CompletedKeys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Printf("No completed jobs under %s\n", root)
	} else {
		// Group marker keys by their leading tag (phase or algorithm)
		perTag := make(map[string]int)
		for _, key := range keys {
			perTag[leadingTag(key)]++
		}
		tags := make([]string, 0, len(perTag))
		for tag := range perTag {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Job Tag", "Completed")
		for _, tag := range tags {
			table.Append(tag, strconv.Itoa(perTag[tag]))
		}
		table.Render()
		fmt.Printf("%d completed jobs total\n", len(keys))
	}

	if statusShowRuns {
		return printRuns(filepath.Join(root, "history.db"))
	}
	return nil
}

// knownTags are the fixed tag vocabulary markers can start with
var knownTags = []string{
	"mutual_information", "multisurf",
	"logistic_regression", "decision_tree", "random_forest", "naive_bayes",
	"XCS", "eLCS",
	"exploratory", "dataprocess", "featureselection", "stats", "compare", "report",
}

// leadingTag extracts the tag prefix of a marker key. Tags can contain
// underscores, so match against the known vocabulary first and fall back to
// the first segment.
func leadingTag(key string) string {
	for _, tag := range knownTags {
		if key == tag || strings.HasPrefix(key, tag+"_") {
			return tag
		}
	}
	if i := strings.Index(key, "_"); i > 0 {
		return key[:i]
	}
	return key
}

func printRuns(dbPath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Println("No history database found")
		return nil
	}
	history, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer history.Close()

	runs, err := history.ListRuns()
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Run ID", "Started", "State")
	for _, run := range runs {
		table.Append(run.ID, run.StartedAt, run.State)
	}
	table.Render()
	return nil
}
