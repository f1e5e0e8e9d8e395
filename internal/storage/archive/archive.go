// Package archive persists finished simulation runs as JSON documents under
// runs/<date>/<run-id>.json, on a pluggable storage backend.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jtammen/stratsim/internal/report"
	"github.com/jtammen/stratsim/internal/sim"
)

// Backend is the low-level byte store an Archive writes to.
type Backend interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// RunRecord is the archived form of one simulation run.
type RunRecord struct {
	SavedAt time.Time           `json:"saved_at"`
	Result  *sim.Result         `json:"result"`
	Values  []report.ValuePoint `json:"values"`
	Summary report.Summary      `json:"summary"`
	Stats   report.Stats        `json:"stats"`
}

// Archive stores run records on a backend.
type Archive struct {
	backend Backend
}

// New creates an Archive over a backend.
func New(backend Backend) *Archive {
	return &Archive{backend: backend}
}

// runPath derives the storage path for a record from its run date and ID.
func runPath(rec RunRecord) string {
	return fmt.Sprintf("runs/%s/%s.json", rec.SavedAt.Format("2006-01-02"), rec.Result.RunID)
}

// SaveRun persists a record and returns the path it was stored under.
func (a *Archive) SaveRun(ctx context.Context, rec RunRecord) (string, error) {
	if rec.Result == nil {
		return "", fmt.Errorf("record has no result")
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding run %s: %w", rec.Result.RunID, err)
	}

	path := runPath(rec)
	if err := a.backend.Write(ctx, path, data); err != nil {
		return "", fmt.Errorf("writing run %s: %w", rec.Result.RunID, err)
	}
	return path, nil
}

// LoadRun reads a record back from a path returned by SaveRun or ListRuns.
func (a *Archive) LoadRun(ctx context.Context, path string) (RunRecord, error) {
	data, err := a.backend.Read(ctx, path)
	if err != nil {
		return RunRecord{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var rec RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return RunRecord{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return rec, nil
}

// ListRuns returns the paths of all runs archived on a date.
func (a *Archive) ListRuns(ctx context.Context, date time.Time) ([]string, error) {
	return a.backend.List(ctx, "runs/"+date.Format("2006-01-02"))
}

// DeleteRun removes an archived run.
func (a *Archive) DeleteRun(ctx context.Context, path string) error {
	return a.backend.Delete(ctx, path)
}
