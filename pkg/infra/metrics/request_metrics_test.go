package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRequestMetrics_InitialSnapshot(t *testing.T) {
	rm := NewRequestMetrics()
	snap := rm.Snapshot()

	if snap.TotalRequests != 0 || snap.TotalErrors != 0 {
		t.Errorf("expected zero counters, got %+v", snap)
	}
	if snap.AvgLatencyMs != 0 || snap.ErrorRate != 0 {
		t.Errorf("expected zero averages, got %+v", snap)
	}
	if len(snap.Units) != 0 {
		t.Errorf("expected no units, got %d", len(snap.Units))
	}
}

func TestRequestMetrics_RecordSuccess(t *testing.T) {
	rm := NewRequestMetrics()
	rm.Record("recommend.models", 10*time.Millisecond, false)
	rm.Record("recommend.models", 20*time.Millisecond, false)

	snap := rm.Snapshot()

	if snap.TotalRequests != 2 {
		t.Errorf("expected TotalRequests=2, got %d", snap.TotalRequests)
	}
	if snap.AvgLatencyMs != 15.0 {
		t.Errorf("expected AvgLatencyMs=15.0, got %f", snap.AvgLatencyMs)
	}
	if snap.ErrorRate != 0 {
		t.Errorf("expected ErrorRate=0, got %f", snap.ErrorRate)
	}
}

func TestRequestMetrics_RecordError(t *testing.T) {
	rm := NewRequestMetrics()
	rm.Record("model.get", 10*time.Millisecond, false)
	rm.Record("model.get", 20*time.Millisecond, true)

	snap := rm.Snapshot()

	if snap.TotalErrors != 1 {
		t.Errorf("expected TotalErrors=1, got %d", snap.TotalErrors)
	}
	if snap.ErrorRate != 0.5 {
		t.Errorf("expected ErrorRate=0.5, got %f", snap.ErrorRate)
	}
}

func TestRequestMetrics_PerUnit(t *testing.T) {
	rm := NewRequestMetrics()
	rm.Record("recommend.models", 30*time.Millisecond, false)
	rm.Record("model.get", 10*time.Millisecond, true)
	rm.Record("model.get", 20*time.Millisecond, false)
	rm.Record("", 5*time.Millisecond, false)

	snap := rm.Snapshot()
	if snap.TotalRequests != 4 {
		t.Fatalf("expected TotalRequests=4, got %d", snap.TotalRequests)
	}
	if len(snap.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(snap.Units))
	}

	get := snap.Units[0]
	if get.Unit != "model.get" {
		t.Fatalf("expected units sorted by name, got %q first", get.Unit)
	}
	if get.TotalRequests != 2 || get.TotalErrors != 1 {
		t.Errorf("unexpected model.get counters: %+v", get)
	}
	if get.AvgLatencyMs != 15.0 || get.ErrorRate != 0.5 {
		t.Errorf("unexpected model.get averages: %+v", get)
	}
	if snap.Units[1].Unit != "recommend.models" || snap.Units[1].TotalRequests != 1 {
		t.Errorf("unexpected recommend.models counters: %+v", snap.Units[1])
	}
}

func TestRequestMetrics_ConcurrentRecords(t *testing.T) {
	rm := NewRequestMetrics()
	n := 100

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			rm.Record("hardware.estimate_vram", time.Millisecond, i%10 == 0)
		}(i)
	}
	wg.Wait()

	snap := rm.Snapshot()
	if snap.TotalRequests != int64(n) {
		t.Errorf("expected TotalRequests=%d, got %d", n, snap.TotalRequests)
	}
	if snap.TotalErrors != int64(n/10) {
		t.Errorf("expected TotalErrors=%d, got %d", n/10, snap.TotalErrors)
	}
	if len(snap.Units) != 1 || snap.Units[0].TotalRequests != int64(n) {
		t.Errorf("unexpected per-unit counters: %+v", snap.Units)
	}
}
