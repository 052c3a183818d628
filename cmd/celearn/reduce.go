package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	runuc "github.com/kailas-cloud/celearn/internal/usecase/run"
)

// reduceFile is the YAML input of the reduce command.
type reduceFile struct {
	Targets     []string `yaml:"targets"`
	Allowance   int      `yaml:"allowance"`
	SortKey     string   `yaml:"sort_key"`
	Definitions []struct {
		Concept string   `yaml:"concept"`
		Covered []string `yaml:"covered"`
	} `yaml:"definitions"`
}

func newReduceCmd() *cobra.Command {
	var (
		allowance int
		sortKey   string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "reduce FILE",
		Short: "Select a small set of partial definitions covering the targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			var in reduceFile
			if err := yaml.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			if cmd.Flags().Changed("allowance") {
				in.Allowance = allowance
			}
			if cmd.Flags().Changed("sort-key") {
				in.SortKey = sortKey
			}

			items := make([]runuc.ReduceItem, len(in.Definitions))
			for i, d := range in.Definitions {
				items[i] = runuc.ReduceItem{Concept: d.Concept, Covered: d.Covered}
			}
			res, err := runuc.ReduceItems(items, in.Targets, in.Allowance, in.SortKey, nil)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSONResult(cmd.OutOrStdout(), domrun.Summary{}, res)
			}
			writeReduction(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&allowance, "allowance", 0, "targets that may stay uncovered (overrides the file)")
	cmd.Flags().StringVar(&sortKey, "sort-key", "", "generation or completeness (overrides the file)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
