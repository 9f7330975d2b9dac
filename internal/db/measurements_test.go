package db

import (
	"context"
	"testing"

	"github.com/banshee-data/anchor-pose/internal/particle"
	"github.com/banshee-data/anchor-pose/internal/sources"
)

func mustMeasurement(t *testing.T, v particle.Vector3, ts int64, kind particle.DistributionKind) particle.VectorMeasurement {
	t.Helper()
	m, err := particle.NewMeasurement(v, ts, 0.2, kind)
	if err != nil {
		t.Fatalf("NewMeasurement failed: %v", err)
	}
	return m
}

func TestRecordAndListMeasurements(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db, "measurements")
	ctx := context.Background()

	inputs := []struct {
		source string
		m      particle.VectorMeasurement
	}{
		{"uwb", mustMeasurement(t, particle.Vector3{1, 2, 3}, 200, particle.Gaussian)},
		{"uwb", mustMeasurement(t, particle.Vector3{1.1, 2, 3}, 100, particle.Gaussian)},
		{"imu", mustMeasurement(t, particle.Vector3{0, 90, 0}, 150, particle.Uniform)},
	}
	for _, in := range inputs {
		if err := db.RecordMeasurement(ctx, run.ID, in.source, in.m); err != nil {
			t.Fatalf("RecordMeasurement failed: %v", err)
		}
	}

	uwb, err := db.ListMeasurements(ctx, run.ID, "uwb")
	if err != nil {
		t.Fatalf("ListMeasurements failed: %v", err)
	}
	if len(uwb) != 2 || uwb[0].Timestamp != 100 || uwb[1].Timestamp != 200 {
		t.Fatalf("Unexpected uwb readings: %+v", uwb)
	}

	all, err := db.ListMeasurements(ctx, run.ID, "")
	if err != nil {
		t.Fatalf("ListMeasurements failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 readings, got %d", len(all))
	}
	imu := all[1]
	if imu.Source != "imu" || imu.Distribution != particle.Uniform || imu.Value != (particle.Vector3{0, 90, 0}) {
		t.Errorf("Unexpected imu reading: %+v", imu)
	}

	r, err := imu.Reading()
	if err != nil {
		t.Fatalf("Reading failed: %v", err)
	}
	if r.Distribution.Kind() != particle.Uniform || r.StdDev != 0.2 || r.Timestamp != 150 {
		t.Errorf("Unexpected rebuilt reading: %+v", r)
	}
}

func TestRecordingSourceStoresEachReadingOnce(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db, "recording")
	ctx := context.Background()

	buf := sources.NewBuffer("uwb", 0)
	for ts := int64(100); ts <= 400; ts += 100 {
		buf.Push(mustMeasurement(t, particle.Vector3{float64(ts), 0, 0}, ts, particle.Gaussian))
	}
	src := db.NewRecordingSource(run.ID, "uwb", buf)

	// Overlapping windows return the reading at 200 twice.
	if got := src.Closest(200, 100, 200); len(got) != 1 {
		t.Fatalf("Expected 1 reading, got %d", len(got))
	}
	if got := src.Closest(200, 200, 200); len(got) != 1 {
		t.Fatalf("Expected 1 reading, got %d", len(got))
	}
	if got := src.Between(200, 400); len(got) != 2 {
		t.Fatalf("Expected 2 readings, got %d", len(got))
	}
	if src.Failures() != 0 {
		t.Errorf("Expected no failures, got %d", src.Failures())
	}

	stored, err := db.ListMeasurements(ctx, run.ID, "uwb")
	if err != nil {
		t.Fatalf("ListMeasurements failed: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("Expected 3 stored readings, got %d", len(stored))
	}
	for i, want := range []int64{200, 300, 400} {
		if stored[i].Timestamp != want {
			t.Errorf("stored[%d].Timestamp = %d, want %d", i, stored[i].Timestamp, want)
		}
	}
}

func TestRecordingSourceCountsFailures(t *testing.T) {
	db := setupTestDB(t)
	buf := sources.NewBuffer("uwb", 0)
	buf.Push(mustMeasurement(t, particle.Vector3{1, 1, 1}, 100, particle.Gaussian))

	src := db.NewRecordingSource("no-such-run", "uwb", buf)
	if got := src.Closest(100, 0, 100); len(got) != 1 {
		t.Fatalf("Expected reading to pass through, got %d", len(got))
	}
	if src.Failures() != 1 {
		t.Errorf("Expected 1 failure, got %d", src.Failures())
	}
}

func TestLoadBufferReplaysRun(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db, "replay")
	ctx := context.Background()

	for _, ts := range []int64{300, 100, 200} {
		m := mustMeasurement(t, particle.Vector3{float64(ts), 1, 1}, ts, particle.Gaussian)
		if err := db.RecordMeasurement(ctx, run.ID, "uwb", m); err != nil {
			t.Fatalf("RecordMeasurement failed: %v", err)
		}
	}

	buf, err := db.LoadBuffer(ctx, run.ID, "uwb")
	if err != nil {
		t.Fatalf("LoadBuffer failed: %v", err)
	}
	if buf.Len() != 3 || buf.Name() != "uwb" {
		t.Fatalf("Unexpected buffer: len=%d name=%s", buf.Len(), buf.Name())
	}
	got := buf.Closest(210, 0, 400)
	if len(got) != 1 || got[0].Timestamp != 200 {
		t.Errorf("Expected closest reading at 200, got %+v", got)
	}

	empty, err := db.LoadBuffer(ctx, run.ID, "missing")
	if err != nil {
		t.Fatalf("LoadBuffer failed: %v", err)
	}
	if empty.Len() != 0 {
		t.Errorf("Expected empty buffer, got %d", empty.Len())
	}
}
