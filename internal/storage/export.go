package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/glutensim/internal/metrics"
)

type ExportData struct {
	Run     RunMetadata      `json:"run"`
	Samples []metrics.Sample `json:"samples"`
}

// ExportJSON writes a run and its samples as one indented document.
func ExportJSON(w io.Writer, meta RunMetadata, samples []metrics.Sample) error {
	if samples == nil {
		samples = []metrics.Sample{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Samples: samples})
}
