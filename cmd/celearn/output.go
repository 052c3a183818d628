package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	domrun "github.com/kailas-cloud/celearn/internal/domain/run"
	"github.com/kailas-cloud/celearn/internal/usecase/reducer"
)

type jsonHypothesis struct {
	Concept          string  `json:"concept"`
	Length           int     `json:"length"`
	Accuracy         float64 `json:"accuracy"`
	CoveredPositives int     `json:"covered_positives"`
	CoveredNegatives int     `json:"covered_negatives"`
}

type jsonDefinition struct {
	Concept  string   `json:"concept"`
	Covered  []string `json:"covered"`
	Marginal int      `json:"marginal"`
}

type jsonResult struct {
	ID          string           `json:"id,omitempty"`
	Mode        string           `json:"mode,omitempty"`
	Termination string           `json:"termination,omitempty"`
	Expansions  int              `json:"expansions"`
	Nodes       int              `json:"nodes"`
	Best        []jsonHypothesis `json:"best,omitempty"`
	Definitions []jsonDefinition `json:"definitions"`
	Uncovered   []string         `json:"uncovered"`
}

func toJSONResult(sum domrun.Summary, res reducer.Result) jsonResult {
	out := jsonResult{
		ID:          sum.ID,
		Mode:        string(sum.Mode),
		Termination: sum.Termination,
		Expansions:  sum.Expansions,
		Nodes:       sum.Nodes,
		Definitions: make([]jsonDefinition, len(res.Selected)),
		Uncovered:   res.Uncovered.Sorted(),
	}
	for _, h := range sum.Best {
		out.Best = append(out.Best, jsonHypothesis(h))
	}
	for i, sel := range res.Selected {
		out.Definitions[i] = jsonDefinition{
			Concept:  sel.Definition.Concept().String(),
			Covered:  sel.Definition.CoveredPositives().Sorted(),
			Marginal: sel.Marginal,
		}
	}
	return out
}

func writeJSONResult(w io.Writer, sum domrun.Summary, res reducer.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toJSONResult(sum, res)); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func writeTextResult(w io.Writer, sum domrun.Summary, res reducer.Result) {
	fmt.Fprintf(w, "termination: %s  expansions: %d  nodes: %d\n\n", sum.Termination, sum.Expansions, sum.Nodes)

	if len(sum.Best) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tACCURACY\tPOS\tNEG\tLEN\tCONCEPT")
		for i, h := range sum.Best {
			fmt.Fprintf(tw, "%d\t%.4f\t%d\t%d\t%d\t%s\n",
				i+1, h.Accuracy, h.CoveredPositives, h.CoveredNegatives, h.Length, h.Concept)
		}
		_ = tw.Flush()
		fmt.Fprintln(w)
	}

	writeReduction(w, res)
}

func writeReduction(w io.Writer, res reducer.Result) {
	fmt.Fprintf(w, "definitions: %d\n", len(res.Selected))
	for _, sel := range res.Selected {
		fmt.Fprintf(w, "  %s  (+%d: %s)\n",
			sel.Definition.Concept(), sel.Marginal, strings.Join(sel.Definition.CoveredPositives().Sorted(), ", "))
	}
	if !res.Complete() {
		fmt.Fprintf(w, "uncovered: %s\n", strings.Join(res.Uncovered.Sorted(), ", "))
	}
}
