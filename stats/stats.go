package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Stats holds server statistics with atomic counters
type Stats struct {
	StartTime time.Time

	TotalRequests atomic.Int64

	// Track pipeline
	Analyses         atomic.Int64
	AnalysisFailures atomic.Int64
	SpectrumFrames   atomic.Int64

	// Contact form
	ContactSubmissions atomic.Int64
	ContactRejected    atomic.Int64

	RateLimitExceeded atomic.Int64

	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response times in microseconds
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	endpoints     sync.Map // route -> *atomic.Int64
	strategies    sync.Map // timing strategy -> *atomic.Int64
	notifications sync.Map // "<notifier>:sent" / "<notifier>:failed" -> *atomic.Int64
}

// New returns zeroed stats starting now
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(maxInt64)
	return s
}

var global = New()

// Get returns the global stats instance
func Get() *Stats {
	return global
}

func increment(m *sync.Map, key string) {
	counter, _ := m.LoadOrStore(key, &atomic.Int64{})
	counter.(*atomic.Int64).Add(1)
}

func snapshotMap(m *sync.Map) map[string]int64 {
	out := make(map[string]int64)
	m.Range(func(k, v interface{}) bool {
		out[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	return out
}

func restoreMap(m *sync.Map, values map[string]int64) {
	for k, v := range values {
		counter := &atomic.Int64{}
		counter.Store(v)
		m.Store(k, counter)
	}
}

// RecordRequest records a request against its route template
func (s *Stats) RecordRequest(route string) {
	s.TotalRequests.Add(1)
	if route == "" {
		route = "other"
	}
	increment(&s.endpoints, route)
}

// RecordAnalysis records an audio analysis attempt
func (s *Stats) RecordAnalysis(ok bool) {
	s.Analyses.Add(1)
	if !ok {
		s.AnalysisFailures.Add(1)
	}
}

// RecordStrategy records which timing strategy produced a response
func (s *Stats) RecordStrategy(name string) {
	increment(&s.strategies, name)
}

// RecordSpectrum records a served spectrum frame
func (s *Stats) RecordSpectrum() {
	s.SpectrumFrames.Add(1)
}

// RecordContact records a contact form submission
func (s *Stats) RecordContact(accepted bool) {
	if accepted {
		s.ContactSubmissions.Add(1)
		return
	}
	s.ContactRejected.Add(1)
}

// RecordNotification records a notifier delivery outcome
func (s *Stats) RecordNotification(notifier string, delivered bool) {
	outcome := ":sent"
	if !delivered {
		outcome = ":failed"
	}
	increment(&s.notifications, notifier+outcome)
}

// RecordRateLimitExceeded records a rejected (429) request
func (s *Stats) RecordRateLimitExceeded() {
	s.RateLimitExceeded.Add(1)
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == maxInt64 {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// Endpoints returns request counts per route
func (s *Stats) Endpoints() map[string]int64 {
	return snapshotMap(&s.endpoints)
}

// Strategies returns how often each timing strategy was chosen
func (s *Stats) Strategies() map[string]int64 {
	return snapshotMap(&s.strategies)
}

// Notifications returns delivery counts per notifier outcome
func (s *Stats) Notifications() map[string]int64 {
	return snapshotMap(&s.notifications)
}

// TopEndpoints returns the n busiest routes, busiest first
func (s *Stats) TopEndpoints(n int) []string {
	counts := s.Endpoints()
	routes := make([]string, 0, len(counts))
	for r := range counts {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool {
		if counts[routes[i]] == counts[routes[j]] {
			return routes[i] < routes[j]
		}
		return counts[routes[i]] > counts[routes[j]]
	})
	if n > 0 && len(routes) > n {
		routes = routes[:n]
	}
	return routes
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":     s.TotalRequests.Load(),
			"endpoints": s.Endpoints(),
		},
		"analysis": map[string]interface{}{
			"runs":            s.Analyses.Load(),
			"failures":        s.AnalysisFailures.Load(),
			"spectrum_frames": s.SpectrumFrames.Load(),
			"strategies":      s.Strategies(),
		},
		"contact": map[string]interface{}{
			"submissions":   s.ContactSubmissions.Load(),
			"rejected":      s.ContactRejected.Load(),
			"notifications": s.Notifications(),
		},
		"rate_limiting": map[string]interface{}{
			"exceeded": s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg": s.AvgResponseTime().String(),
			"min": s.MinResponseTime().String(),
			"max": s.MaxResponseTime().String(),
		},
	}
}
