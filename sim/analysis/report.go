package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Stat is a float64 statistic that encodes as JSON null when not finite,
// keeping empty-sample means (NaN) and unstable-queue waits (+Inf)
// representable in reports.
type Stat float64

func (s Stat) MarshalJSON() ([]byte, error) {
	v := float64(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// statMap converts pool-keyed seconds into their report representation.
func statMap(src map[string]float64) map[string]Stat {
	out := make(map[string]Stat, len(src))
	for k, v := range src {
		out[k] = Stat(v)
	}
	return out
}

// writeJSON saves v as indented JSON.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
