package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/field"
	"github.com/san-kum/fluidsim/internal/metrics"
	"github.com/san-kum/fluidsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	densityFile  = "density.csv"
	configFile   = "config.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID               string             `json:"id"`
	Preset           string             `json:"preset"`
	Timestamp        time.Time          `json:"timestamp"`
	Width            int                `json:"width"`
	Height           int                `json:"height"`
	Frames           int                `json:"frames"`
	Dt               float64            `json:"dt"`
	Backend          string             `json:"backend"`
	JacobiIterations int                `json:"jacobi_iterations"`
	Elapsed          float64            `json:"elapsed_seconds"`
	Metrics          map[string]float64 `json:"metrics"`
}

// FrameRow is one line of frames.csv.
type FrameRow struct {
	Frame            int     `csv:"frame"`
	Time             float64 `csv:"time"`
	TotalDensity     float64 `csv:"total_density"`
	TotalTemperature float64 `csv:"total_temperature"`
	KineticEnergy    float64 `csv:"kinetic_energy"`
	MaxSpeed         float64 `csv:"max_speed"`
	Divergence       float64 `csv:"divergence_residual"`
	Finite           float64 `csv:"finite"`
}

func rowFromRecord(r sim.Record) FrameRow {
	return FrameRow{
		Frame:            r.Frame,
		Time:             r.Time,
		TotalDensity:     r.Metrics[metrics.NameTotalDensity],
		TotalTemperature: r.Metrics[metrics.NameTotalTemperature],
		KineticEnergy:    r.Metrics[metrics.NameKineticEnergy],
		MaxSpeed:         r.Metrics[metrics.NameMaxSpeed],
		Divergence:       r.Metrics[metrics.NameDivergence],
		Finite:           r.Metrics[metrics.NameFinite],
	}
}

// Series returns the named column, or nil if the name is unknown.
func Series(rows []FrameRow, name string) []float64 {
	pick := map[string]func(FrameRow) float64{
		"time":                       func(r FrameRow) float64 { return r.Time },
		metrics.NameTotalDensity:     func(r FrameRow) float64 { return r.TotalDensity },
		metrics.NameTotalTemperature: func(r FrameRow) float64 { return r.TotalTemperature },
		metrics.NameKineticEnergy:    func(r FrameRow) float64 { return r.KineticEnergy },
		metrics.NameMaxSpeed:         func(r FrameRow) float64 { return r.MaxSpeed },
		metrics.NameDivergence:       func(r FrameRow) float64 { return r.Divergence },
		metrics.NameFinite:           func(r FrameRow) float64 { return r.Finite },
	}[name]
	if pick == nil {
		return nil
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = pick(r)
	}
	return out
}

// Save writes a run directory: metadata, per-frame metrics, the final
// density field and the configuration that produced it.
func (s *Store) Save(cfg *config.Config, backend string, result *sim.Result, density *field.Buffer) (string, error) {
	name := cfg.Name
	if name == "" {
		name = "custom"
	}
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:               runID,
		Preset:           cfg.Name,
		Timestamp:        time.Now(),
		Width:            cfg.Grid.Width,
		Height:           cfg.Grid.Height,
		Frames:           result.StepsTaken,
		Dt:               cfg.Dt,
		Backend:          backend,
		JacobiIterations: cfg.Solver.JacobiIterations,
		Elapsed:          result.Elapsed,
		Metrics:          result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	rows := make([]FrameRow, len(result.Records))
	for i, r := range result.Records {
		rows[i] = rowFromRecord(r)
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), rows); err != nil {
		return "", err
	}

	if density != nil {
		if err := writeGrid(filepath.Join(runDir, densityFile), density); err != nil {
			return "", err
		}
	}

	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFrames(path string, rows []FrameRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", framesFile, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("writing %s: %w", framesFile, err)
	}
	return nil
}

// writeGrid stores a scalar buffer one grid row per line, bottom row first.
func writeGrid(path string, b *field.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range b.Rows() {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Latest returns the most recent run id.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrRunNotFound
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]FrameRow, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), framesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows := make([]FrameRow, 0)
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return rows, nil
		}
		return nil, fmt.Errorf("reading %s: %w", framesFile, err)
	}
	return rows, nil
}

// LoadDensity reads the final density field back into a buffer.
func (s *Store) LoadDensity(runID string) (*field.Buffer, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), densityFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", densityFile, err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("reading %s: empty grid", densityFile)
	}

	g := field.NewGrid(len(records[0]), len(records))
	b := field.NewBuffer(g, field.Scalar)
	for y, rec := range records {
		for x, cell := range rec {
			v, err := strconv.ParseFloat(cell, 32)
			if err != nil {
				return nil, fmt.Errorf("%s row %d col %d: %w", densityFile, y, x, err)
			}
			b.Set(x, y, float32(v))
		}
	}
	return b, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.Dir(runID), configFile))
}
