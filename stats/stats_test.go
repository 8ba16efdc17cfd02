package stats

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestRecordRequest(t *testing.T) {
	s := New()
	s.RecordRequest("/tracks/{id}/timed")
	s.RecordRequest("/tracks/{id}/timed")
	s.RecordRequest("/health")
	s.RecordRequest("")

	if got := s.TotalRequests.Load(); got != 4 {
		t.Errorf("Expected 4 total requests, got %d", got)
	}
	endpoints := s.Endpoints()
	if endpoints["/tracks/{id}/timed"] != 2 {
		t.Errorf("Expected 2 timed requests, got %d", endpoints["/tracks/{id}/timed"])
	}
	if endpoints["other"] != 1 {
		t.Errorf("Expected empty route to count as other, got %v", endpoints)
	}

	top := s.TopEndpoints(1)
	if len(top) != 1 || top[0] != "/tracks/{id}/timed" {
		t.Errorf("Expected busiest route first, got %v", top)
	}
}

func TestRecordStatusCode(t *testing.T) {
	s := New()
	for _, code := range []int{200, 201, 204, 301, 400, 404, 429, 500, 503} {
		s.RecordStatusCode(code)
	}

	if s.Status2xx.Load() != 3 {
		t.Errorf("Expected 3 2xx, got %d", s.Status2xx.Load())
	}
	if s.Status4xx.Load() != 3 {
		t.Errorf("Expected 3 4xx, got %d", s.Status4xx.Load())
	}
	if s.Status5xx.Load() != 2 {
		t.Errorf("Expected 2 5xx, got %d", s.Status5xx.Load())
	}
}

func TestResponseTimes(t *testing.T) {
	s := New()
	if s.MinResponseTime() != 0 || s.AvgResponseTime() != 0 {
		t.Error("Expected zero response times before any request")
	}

	s.RecordResponseTime(10 * time.Millisecond)
	s.RecordResponseTime(30 * time.Millisecond)

	if s.MinResponseTime() != 10*time.Millisecond {
		t.Errorf("Expected min 10ms, got %v", s.MinResponseTime())
	}
	if s.MaxResponseTime() != 30*time.Millisecond {
		t.Errorf("Expected max 30ms, got %v", s.MaxResponseTime())
	}
	if s.AvgResponseTime() != 20*time.Millisecond {
		t.Errorf("Expected avg 20ms, got %v", s.AvgResponseTime())
	}
}

func TestDomainCounters(t *testing.T) {
	s := New()
	s.RecordAnalysis(true)
	s.RecordAnalysis(false)
	s.RecordStrategy("audio")
	s.RecordStrategy("audio")
	s.RecordStrategy("even")
	s.RecordContact(true)
	s.RecordContact(false)
	s.RecordNotification("ntfy", true)
	s.RecordNotification("ntfy", false)

	if s.Analyses.Load() != 2 || s.AnalysisFailures.Load() != 1 {
		t.Errorf("Unexpected analysis counters: %d runs, %d failures", s.Analyses.Load(), s.AnalysisFailures.Load())
	}
	if s.Strategies()["audio"] != 2 || s.Strategies()["even"] != 1 {
		t.Errorf("Unexpected strategies: %v", s.Strategies())
	}
	if s.ContactSubmissions.Load() != 1 || s.ContactRejected.Load() != 1 {
		t.Error("Expected one accepted and one rejected submission")
	}
	n := s.Notifications()
	if n["ntfy:sent"] != 1 || n["ntfy:failed"] != 1 {
		t.Errorf("Unexpected notifications: %v", n)
	}

	snap := s.Snapshot()
	for _, key := range []string{"server", "requests", "analysis", "contact", "rate_limiting", "responses", "response_times"} {
		if _, ok := snap[key]; !ok {
			t.Errorf("Expected snapshot key %q", key)
		}
	}
}

func TestConcurrentRecording(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordRequest("/tracks")
			s.RecordStrategy("even")
			s.RecordResponseTime(time.Millisecond)
		}()
	}
	wg.Wait()

	if s.Endpoints()["/tracks"] != 100 {
		t.Errorf("Expected 100 requests, got %d", s.Endpoints()["/tracks"])
	}
	if s.Strategies()["even"] != 100 {
		t.Errorf("Expected 100 strategy records, got %d", s.Strategies()["even"])
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stats.db")

	original := New()
	original.RecordRequest("/tracks")
	original.RecordStrategy("audio")
	original.RecordNotification("email", true)
	original.RecordResponseTime(5 * time.Millisecond)
	original.RecordStatusCode(200)

	store, err := NewStore(dbPath, original)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	restored := New()
	store, err = NewStore(dbPath, restored)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer store.Close()

	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restored.TotalRequests.Load() != 1 {
		t.Errorf("Expected 1 total request, got %d", restored.TotalRequests.Load())
	}
	if restored.Endpoints()["/tracks"] != 1 {
		t.Errorf("Expected endpoint counter restored, got %v", restored.Endpoints())
	}
	if restored.Strategies()["audio"] != 1 {
		t.Errorf("Expected strategy counter restored, got %v", restored.Strategies())
	}
	if restored.Notifications()["email:sent"] != 1 {
		t.Errorf("Expected notification counter restored, got %v", restored.Notifications())
	}
	if restored.MinResponseTime() != 5*time.Millisecond {
		t.Errorf("Expected min response time 5ms, got %v", restored.MinResponseTime())
	}
	if !restored.StartTime.Equal(original.StartTime) {
		t.Errorf("Expected first start time %v, got %v", original.StartTime, restored.StartTime)
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	s := New()
	store, err := NewStore(filepath.Join(t.TempDir(), "stats.db"), s)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Load(); err != nil {
		t.Errorf("Load on empty store failed: %v", err)
	}
	if s.TotalRequests.Load() != 0 {
		t.Error("Expected counters untouched")
	}
}
