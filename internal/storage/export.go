package storage

import (
	"encoding/json"
	"io"

	"github.com/gocarina/gocsv"
)

type ExportData struct {
	Run     RunMetadata `json:"run"`
	Frames  []FrameRow  `json:"frames"`
	Density [][]float32 `json:"density,omitempty"`
}

// ExportJSON writes a run's metadata, frame metrics and final density.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}
	data := ExportData{Run: *meta, Frames: frames}
	if d, err := s.LoadDensity(runID); err == nil {
		data.Density = d.Rows()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes a run's frame metrics as CSV with a header row.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}
	return gocsv.Marshal(frames, w)
}
