package report

import (
	"encoding/json"
	"fmt"

	"testhook/internal/classify"
	"testhook/internal/scan"
)

// Summary aggregates a scan.
type Summary struct {
	Files      int     `json:"files"`
	Failed     int     `json:"failed"`
	Candidates int     `json:"candidates"`
	Marked     int     `json:"marked"`
	NodeErrors int     `json:"node_errors"`
	Coverage   float64 `json:"coverage"`
}

// Summarize computes the totals of r.
func Summarize(r scan.Report) Summary {
	return Summary{
		Files:      len(r.Files),
		Failed:     len(r.Failed()),
		Candidates: len(r.Candidates()),
		Marked:     r.Marked(),
		NodeErrors: r.NodeErrors(),
		Coverage:   r.Coverage(),
	}
}

type jsonFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type jsonReport struct {
	Summary    Summary              `json:"summary"`
	Candidates []classify.Candidate `json:"candidates"`
	Failures   []jsonFailure        `json:"failures,omitempty"`
}

// JSON renders r for machines. Candidates keep scan order; an empty scan
// yields an empty array rather than null.
func JSON(r scan.Report) ([]byte, error) {
	out := jsonReport{
		Summary:    Summarize(r),
		Candidates: r.Candidates(),
	}
	if out.Candidates == nil {
		out.Candidates = []classify.Candidate{}
	}
	for _, f := range r.Failed() {
		out.Failures = append(out.Failures, jsonFailure{Path: f.Path, Error: f.Err.Error()})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}
