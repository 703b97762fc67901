// Package storage keeps simulation runs on disk. Each run gets a directory
// named by its id holding metadata.json, samples.csv and cycles.cbor.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/swervesim/internal/sim"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
	cyclesFile   = "cycles.cbor"
)

var sampleHeader = []string{
	"time", "target_speed", "target_deg", "command_speed", "command_deg",
	"speed", "heading_deg", "drive_volts", "steer_volts", "flipped", "dropped",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Profile    string             `json:"profile"`
	Backend    string             `json:"backend"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Period     float64            `json:"period"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	FlipPolicy string             `json:"flip_policy"`
	Cycles     int                `json:"cycles"`
	Dropped    int                `json:"dropped"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes a run and returns its id. meta.ID and meta.Timestamp are
// filled in when empty.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Cycles = result.Cycles
	meta.Dropped = result.Dropped
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	if err := writeCSV(filepath.Join(runDir, samplesFile), result.Samples); err != nil {
		return "", fmt.Errorf("write samples: %w", err)
	}
	if err := writeCycles(filepath.Join(runDir, cyclesFile), result.Samples); err != nil {
		return "", fmt.Errorf("write cycle log: %w", err)
	}
	return meta.ID, nil
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

func writeCSV(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			formatFloat(smp.Time),
			formatFloat(smp.TargetSpeed),
			formatFloat(smp.TargetDeg),
			formatFloat(smp.CommandSpeed),
			formatFloat(smp.CommandDeg),
			formatFloat(smp.Speed),
			formatFloat(smp.HeadingDeg),
			formatFloat(smp.DriveVolts),
			formatFloat(smp.SteerVolts),
			strconv.FormatBool(smp.Flipped),
			strconv.FormatBool(smp.Dropped),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeCycles(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := newCycleEncoder(f)
	for _, smp := range samples {
		if err := enc.Encode(smp); err != nil {
			return err
		}
	}
	return nil
}

// List returns stored runs, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

// Resolve expands a unique id prefix to a full run id.
func (s *Store) Resolve(prefix string) (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	match := ""
	for _, r := range runs {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	return match, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads the CSV sample table of a run.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(sampleHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		smp, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", samplesFile, i+2, err)
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseRow(rec []string) (sim.Sample, error) {
	var vals [9]float64
	for i := range vals {
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return sim.Sample{}, err
		}
		vals[i] = v
	}
	flipped, err := strconv.ParseBool(rec[9])
	if err != nil {
		return sim.Sample{}, err
	}
	dropped, err := strconv.ParseBool(rec[10])
	if err != nil {
		return sim.Sample{}, err
	}
	return sim.Sample{
		Time:         vals[0],
		TargetSpeed:  vals[1],
		TargetDeg:    vals[2],
		CommandSpeed: vals[3],
		CommandDeg:   vals[4],
		Speed:        vals[5],
		HeadingDeg:   vals[6],
		DriveVolts:   vals[7],
		SteerVolts:   vals[8],
		Flipped:      flipped,
		Dropped:      dropped,
	}, nil
}

// LoadCycles reads the full precision CBOR cycle log of a run.
func (s *Store) LoadCycles(runID string) ([]sim.Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, cyclesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := newCycleDecoder(f)
	samples := make([]sim.Sample, 0)
	for {
		var smp sim.Sample
		if err := dec.Decode(&smp); err != nil {
			if err == io.EOF {
				return samples, nil
			}
			return nil, err
		}
		samples = append(samples, smp)
	}
}
