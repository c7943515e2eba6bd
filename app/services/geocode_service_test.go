package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/models"
	"github.com/ssd-geocoder/app/requests"
	"github.com/ssd-geocoder/internal/geocoder"
	"github.com/ssd-geocoder/internal/search"
	"github.com/ssd-geocoder/internal/spatial"
)

func newTestGeocodeService() *GeocodeService {
	ix := search.NewMemoryIndex()

	lon, lat := 29.98, 9.09
	ix.Add(models.Feature{
		FeatureID:        "SET001",
		Layer:            models.LayerSettlement,
		Name:             "Abiemnhom",
		CentroidLon:      &lon,
		CentroidLat:      &lat,
		Hierarchy:        models.AdminHierarchy{State: "Unity", County: "Abiemnhom"},
		GazetteerVersion: "2026-07",
	}, nil)

	resolver := spatial.NewHierarchyResolver(ix, zap.NewNop())
	gc := geocoder.New(ix, resolver, nil, nil, zap.NewNop())
	return NewGeocodeService(gc, resolver, nil, zap.NewNop())
}

func TestGetJobStatusUnknownJob(t *testing.T) {
	gs := newTestGeocodeService()

	if _, err := gs.GetJobStatus("no-such-job"); err == nil {
		t.Fatal("expected an error for an unknown job ID")
	}
}

func TestProcessBatchJobCompletes(t *testing.T) {
	gs := newTestGeocodeService()

	texts := []string{"Abiemnom", "Xyzabc", "Abiemnhom"}
	gs.ProcessBatchJob("job-1", texts, requests.GeocodeOptions{})

	status, err := gs.GetJobStatus("job-1")
	if err != nil {
		t.Fatalf("GetJobStatus: %v", err)
	}
	if status.Status != "done" {
		t.Errorf("job status = %q, want done", status.Status)
	}
	if status.Processed != len(texts) || status.Total != len(texts) {
		t.Errorf("processed %d/%d, want %d/%d",
			status.Processed, status.Total, len(texts), len(texts))
	}
	if status.Progress != 1.0 {
		t.Errorf("progress = %v, want 1.0", status.Progress)
	}

	results, err := gs.GetJobResults("job-1")
	if err != nil {
		t.Fatalf("GetJobResults: %v", err)
	}
	if len(results) != len(texts) {
		t.Fatalf("got %d results, want %d", len(results), len(texts))
	}
}

// Status polls must return a snapshot, not the registry entry the worker is
// still updating. Run with the race detector on.
func TestGetJobStatusSnapshotWhileRunning(t *testing.T) {
	gs := newTestGeocodeService()

	texts := make([]string, 500)
	for i := range texts {
		texts[i] = fmt.Sprintf("Abiemnom %d", i)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		gs.ProcessBatchJob("job-race", texts, requests.GeocodeOptions{})
	}()

	deadline := time.Now().Add(10 * time.Second)
	var lastProcessed int
	for time.Now().Before(deadline) {
		status, err := gs.GetJobStatus("job-race")
		if err != nil {
			// Poll may land before the worker registers the job.
			time.Sleep(time.Millisecond)
			continue
		}
		if status.Processed < lastProcessed {
			t.Fatalf("processed count went backwards: %d then %d",
				lastProcessed, status.Processed)
		}
		lastProcessed = status.Processed
		if status.Status == "done" {
			break
		}
	}
	wg.Wait()

	status, err := gs.GetJobStatus("job-race")
	if err != nil {
		t.Fatalf("GetJobStatus after completion: %v", err)
	}
	if status.Status != "done" {
		t.Fatalf("job never finished: status %q after %d texts",
			status.Status, status.Processed)
	}
}
