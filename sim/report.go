// Persists a Report (or a multi-scheduler ComparisonReport) to JSON, the
// same encoding/json idiom the core uses for its own aggregate output.

package sim

import (
	"encoding/json"
	"fmt"
	"os"
)

// ComparisonReport indexes per-scheduler Reports by scheduler name, matching
// the "results document indexed by scheduler name" persisted-state layout.
type ComparisonReport struct {
	Results map[string]Report `json:"results"`
}

// SaveJSON writes report as indented JSON to path.
func SaveJSON(report any, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report to %s: %w", path, err)
	}
	return nil
}

// LoadComparisonReport reads a ComparisonReport previously written by
// SaveJSON, used by tooling that diffs two runs' results.
func LoadComparisonReport(path string) (ComparisonReport, error) {
	var report ComparisonReport
	data, err := os.ReadFile(path)
	if err != nil {
		return report, fmt.Errorf("read report from %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("unmarshal report from %s: %w", path, err)
	}
	return report, nil
}
