package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/segsim/internal/config"
	"github.com/san-kum/segsim/internal/schelling"
)

const (
	metadataFile = "metadata.json"
	gridFile     = "grid.csv"
)

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
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Size        int                `json:"size"`
	BlueRatio   float64            `json:"blue_ratio"`
	RedRatio    float64            `json:"red_ratio"`
	EmptyRatio  float64            `json:"empty_ratio"`
	MaxSteps    int                `json:"max_steps"`
	Status      schelling.Status   `json:"status"`
	Steps       int                `json:"steps"`
	Moves       int                `json:"moves"`
	ConvergedAt int                `json:"converged_at,omitempty"`
	Counts      schelling.Counts   `json:"counts"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes the run summary and the final grid. Intermediate grids are not kept.
func (s *Store) Save(cfg *config.Config, result *schelling.Result) (string, error) {
	if result.Final == nil {
		return "", fmt.Errorf("result has no final grid")
	}

	now := time.Now()
	runID := fmt.Sprintf("run_%d", now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Timestamp:   now,
		Seed:        cfg.Seed,
		Size:        cfg.Size,
		BlueRatio:   cfg.BlueRatio,
		RedRatio:    cfg.RedRatio,
		EmptyRatio:  cfg.EmptyRatio,
		MaxSteps:    cfg.MaxSteps,
		Status:      result.Status,
		Steps:       result.Steps,
		Moves:       result.Moves,
		ConvergedAt: result.ConvergedAt,
		Counts:      result.Final.Counts(),
		Metrics:     result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeGrid(filepath.Join(runDir, gridFile), result.Final); err != nil {
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

func writeGrid(path string, g *schelling.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range g.Rows() {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = strconv.Itoa(int(v))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadGrid(runID string) (*schelling.Grid, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, gridFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]schelling.Cell, len(records))
	for r, record := range records {
		rows[r] = make([]schelling.Cell, len(record))
		for c, field := range record {
			v, err := strconv.Atoi(field)
			if err != nil || v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: bad value %q at (%d,%d)", schelling.ErrInvalidGrid, field, r, c)
			}
			rows[r][c] = schelling.Cell(v)
		}
	}
	return schelling.FromRows(rows)
}
