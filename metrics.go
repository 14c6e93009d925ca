package courseapp

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram in the in-process metrics system.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricSignupSuccess counts completed signups.
	MetricSignupSuccess MetricID = iota
	// MetricSignupDuplicate counts signups rejected for a taken username or email.
	MetricSignupDuplicate
	// MetricSignupFailure counts signups that failed validation or persistence.
	MetricSignupFailure
	// MetricLoginSuccess counts logins that issued a token pair.
	MetricLoginSuccess
	// MetricLoginFailure counts logins rejected with invalid credentials.
	MetricLoginFailure
	// MetricPasswordRehashed counts stored hashes upgraded to the configured cost at login.
	MetricPasswordRehashed
	// MetricSessionCreated counts refresh sessions persisted.
	MetricSessionCreated
	// MetricSessionCreationFailed counts refresh sessions that could not be persisted.
	MetricSessionCreationFailed
	// MetricSessionPruned counts expired or surplus sessions dropped from user documents.
	MetricSessionPruned
	// MetricRefreshSuccess counts refresh-guard checks that passed.
	MetricRefreshSuccess
	// MetricRefreshFailure counts refresh-guard checks that failed.
	MetricRefreshFailure
	// MetricAccessIssued counts access tokens issued.
	MetricAccessIssued
	// MetricAccessRejected counts access tokens rejected by the access guard.
	MetricAccessRejected
	// MetricPasswordChangeSuccess counts completed password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld counts password changes with a wrong current password.
	MetricPasswordChangeInvalidOld
	// MetricPasswordChangeReuseRejected counts password changes rejected for reuse.
	MetricPasswordChangeReuseRejected
	// MetricEnrollmentSuccess counts completed enrollments.
	MetricEnrollmentSuccess
	// MetricEnrollmentDuplicate counts enrollments rejected as duplicates.
	MetricEnrollmentDuplicate
	// MetricEnrollmentFailure counts enrollments that failed for other reasons.
	MetricEnrollmentFailure
	// MetricCourseCreated counts catalog insertions.
	MetricCourseCreated
	// MetricCourseUpdated counts catalog updates.
	MetricCourseUpdated
	// MetricCourseDeleted counts catalog deletions.
	MetricCourseDeleted
	// MetricValidateLatency is the access-token validation latency histogram.
	MetricValidateLatency
	metricIDCount
)

// latencyBounds are the inclusive upper bounds of the access validation latency
// buckets. One more bucket catches everything slower.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const latencyBucketCount = len(latencyBounds) + 1

// counter sits on its own cache line; login and guard counters are bumped on every request.
type counter struct {
	atomic.Uint64
	_ [56]byte
}

// Metrics holds the engine counters and the access validation latency histogram.
// When disabled every method is a no-op and snapshots are empty.
type Metrics struct {
	enabled  bool
	latency  bool
	counters [metricIDCount]counter
	validate [latencyBucketCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the counters and, when latency
// histograms are on, the per-bucket validation latency counts.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg. Latency histograms require Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.latency
}

// Inc bumps counter id by one.
func (m *Metrics) Inc(id MetricID) {
	m.Add(id, 1)
}

// Add bumps counter id by n. The histogram id and unknown ids are ignored.
func (m *Metrics) Add(id MetricID, n uint64) {
	if !m.Enabled() || n == 0 || id >= metricIDCount || id == MetricValidateLatency {
		return
	}
	m.counters[id].Add(n)
}

// Observe records one access validation that took d. Only MetricValidateLatency
// has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricValidateLatency {
		return
	}
	m.validate[latencyBucket(d)].Add(1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id != MetricValidateLatency {
			s.Counters[id] = m.counters[id].Load()
		}
	}
	if m.latency {
		buckets := make([]uint64, latencyBucketCount)
		for i := range buckets {
			buckets[i] = m.validate[i].Load()
		}
		s.Histograms[MetricValidateLatency] = buckets
	}
	return s
}

func latencyBucket(d time.Duration) int {
	for i, bound := range latencyBounds {
		if d <= bound {
			return i
		}
	}
	return len(latencyBounds)
}
