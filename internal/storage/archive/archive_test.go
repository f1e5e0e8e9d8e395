package archive

import (
	"context"
	"testing"
	"time"

	"github.com/jtammen/stratsim/internal/report"
	"github.com/jtammen/stratsim/internal/sim"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	backend, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(backend)
}

func testRecord() RunRecord {
	return RunRecord{
		SavedAt: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Result: &sim.Result{
			RunID:      "0f0e6a7e-1111-2222-3333-444455556666",
			Strategy:   "momentum",
			State:      sim.StateCompleted,
			Steps:      20,
			FinalValue: 1234.56,
		},
		Values: []report.ValuePoint{
			{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Value: 1000},
			{Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Value: 1234.56},
		},
		Summary: report.Summary{Investment: 1000, Earnings: 234.56, TotalReturns: 1234.56},
	}
}

func TestArchive_SaveAndLoadRun(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	path, err := a.SaveRun(ctx, testRecord())
	if err != nil {
		t.Fatal(err)
	}
	want := "runs/2024-03-15/0f0e6a7e-1111-2222-3333-444455556666.json"
	if path != want {
		t.Errorf("path = %s, want %s", path, want)
	}

	rec, err := a.LoadRun(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Result.Strategy != "momentum" || rec.Result.FinalValue != 1234.56 {
		t.Errorf("loaded result = %+v", rec.Result)
	}
	if len(rec.Values) != 2 {
		t.Errorf("got %d value points, want 2", len(rec.Values))
	}
}

func TestArchive_SaveRunWithoutResult(t *testing.T) {
	a := testArchive(t)
	if _, err := a.SaveRun(context.Background(), RunRecord{}); err == nil {
		t.Error("expected error for record without result")
	}
}

func TestArchive_ListRunsByDate(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	rec := testRecord()
	if _, err := a.SaveRun(ctx, rec); err != nil {
		t.Fatal(err)
	}
	other := testRecord()
	other.SavedAt = other.SavedAt.AddDate(0, 0, 1)
	other.Result.RunID = "other-run"
	if _, err := a.SaveRun(ctx, other); err != nil {
		t.Fatal(err)
	}

	paths, err := a.ListRuns(ctx, rec.SavedAt)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 {
		t.Errorf("got %d runs for 2024-03-15, want 1: %v", len(paths), paths)
	}
}

func TestArchive_DeleteRun(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	path, err := a.SaveRun(ctx, testRecord())
	if err != nil {
		t.Fatal(err)
	}
	if err := a.DeleteRun(ctx, path); err != nil {
		t.Fatal(err)
	}
	if _, err := a.LoadRun(ctx, path); err == nil {
		t.Error("expected load failure after delete")
	}
}

func TestLocalFS_ListMissingPrefix(t *testing.T) {
	backend, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	paths, err := backend.List(context.Background(), "nothing/here")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Errorf("got %v, want empty list", paths)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	backend, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	ok, err := backend.Exists(ctx, "missing.json")
	if err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
	if err := backend.Write(ctx, "present.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}
	ok, err = backend.Exists(ctx, "present.json")
	if err != nil || !ok {
		t.Errorf("Exists(present) = %v, %v", ok, err)
	}
}
