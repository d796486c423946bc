package batch

import (
	"encoding/json"
	"os"
)

// Manifest describes one rendered sequence.
type Manifest struct {
	Source  string   `json:"source"`
	Dialect string   `json:"dialect"`
	Size    int      `json:"size"`
	Format  string   `json:"format"`
	Tracks  int      `json:"tracks"`
	Frames  []Result `json:"frames"`
}

// WriteManifest writes manifest.json-style output to path.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Failed returns the results that did not produce an image.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}
