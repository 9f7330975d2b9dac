package db

import (
	"context"
	"math"
	"testing"

	"github.com/banshee-data/anchor-pose/internal/filter"
	"github.com/banshee-data/anchor-pose/internal/particle"
)

func TestRecordAndListEstimates(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db, "estimates")
	ctx := context.Background()

	rec := db.NewRecorder(run.ID)
	if rec.RunID() != run.ID {
		t.Errorf("RunID = %s, want %s", rec.RunID(), run.ID)
	}

	good := filter.Estimate{
		Timestamp: 1100,
		Pose: filter.Pose{
			Position:    particle.Vector3{1, 0.5, 2},
			Orientation: particle.Vector3{10, 0, 350},
		},
		Validation: filter.PoseValidationResult{Valid: true, Issues: []string{}},
	}
	bad := filter.Estimate{
		Timestamp: 1000,
		Pose: filter.Pose{
			Position:    particle.Vector3{math.NaN(), math.NaN(), math.NaN()},
			Orientation: particle.Vector3{0, 0, 0},
		},
		Validation: filter.PoseValidationResult{Valid: false, Issues: []string{"position is NaN"}},
	}
	if err := rec.RecordEstimate(ctx, good); err != nil {
		t.Fatalf("RecordEstimate failed: %v", err)
	}
	if err := rec.RecordEstimate(ctx, bad); err != nil {
		t.Fatalf("RecordEstimate failed: %v", err)
	}
	// One estimate per timestamp.
	if err := rec.RecordEstimate(ctx, good); err == nil {
		t.Error("Expected duplicate timestamp to fail")
	}

	got, err := db.ListEstimates(ctx, run.ID)
	if err != nil {
		t.Fatalf("ListEstimates failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 estimates, got %d", len(got))
	}

	if got[0].Timestamp != 1000 || got[1].Timestamp != 1100 {
		t.Errorf("Expected timestamp order, got %d, %d", got[0].Timestamp, got[1].Timestamp)
	}
	for i := 0; i < 3; i++ {
		if !math.IsNaN(got[0].Pose.Position[i]) {
			t.Errorf("Expected NaN position[%d], got %v", i, got[0].Pose.Position[i])
		}
	}
	if got[0].Validation.Valid || len(got[0].Validation.Issues) != 1 {
		t.Errorf("Unexpected validation: %+v", got[0].Validation)
	}
	if got[1].Pose != good.Pose || !got[1].Validation.Valid {
		t.Errorf("Round trip mismatch: %+v", got[1])
	}
}

func TestRecordEstimateRequiresRun(t *testing.T) {
	db := setupTestDB(t)
	err := db.RecordEstimate(context.Background(), "missing", filter.Estimate{Timestamp: 1})
	if err == nil {
		t.Error("Expected foreign key violation for unknown run")
	}
}

func TestDeleteRunCascades(t *testing.T) {
	db := setupTestDB(t)
	run := createTestRun(t, db, "cascade")
	ctx := context.Background()

	if err := db.RecordEstimate(ctx, run.ID, filter.Estimate{Timestamp: 1}); err != nil {
		t.Fatalf("RecordEstimate failed: %v", err)
	}
	m, err := particle.NewMeasurement(particle.Vector3{1, 1, 1}, 1, 0.1, particle.Gaussian)
	if err != nil {
		t.Fatalf("NewMeasurement failed: %v", err)
	}
	if err := db.RecordMeasurement(ctx, run.ID, "uwb", m); err != nil {
		t.Fatalf("RecordMeasurement failed: %v", err)
	}

	if err := db.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	ests, _ := db.ListEstimates(ctx, run.ID)
	ms, _ := db.ListMeasurements(ctx, run.ID, "")
	if len(ests) != 0 || len(ms) != 0 {
		t.Errorf("Expected cascade delete, got %d estimates and %d measurements", len(ests), len(ms))
	}
}
