package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds in-process counters for the evaluation pipeline.
type Metrics struct {
	RequestCount     int64
	ErrorCount       int64
	CacheHits        int64
	CacheMisses      int64
	RoleCalls        int64
	FallbackRetries  int64
	RepairRounds     int64
	VerifierPasses   int64
	VerifierRepairs  int64
	VerifierHardFail int64
	StartTime        time.Time

	// Per-role call counters
	roleCallsByRole map[string]int64
	roleMutex       sync.RWMutex
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:       time.Now(),
		roleCallsByRole: make(map[string]int64),
	}
}

// IncrementRequest increments the request count.
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count.
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementCacheHit increments cache hit count.
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncrementCacheMiss increments cache miss count.
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncrementRoleCall records a text-generation call for a role.
func (m *Metrics) IncrementRoleCall(role string) {
	atomic.AddInt64(&m.RoleCalls, 1)

	m.roleMutex.Lock()
	m.roleCallsByRole[role]++
	m.roleMutex.Unlock()
}

// IncrementFallbackRetry records a fallback-model retry.
func (m *Metrics) IncrementFallbackRetry() {
	atomic.AddInt64(&m.FallbackRetries, 1)
}

// IncrementRepairRound records a verifier repair round.
func (m *Metrics) IncrementRepairRound() {
	atomic.AddInt64(&m.RepairRounds, 1)
}

// RecordVerifierOutcome records a verifier status.
func (m *Metrics) RecordVerifierOutcome(status string) {
	switch status {
	case "pass":
		atomic.AddInt64(&m.VerifierPasses, 1)
	case "repaired":
		atomic.AddInt64(&m.VerifierRepairs, 1)
	case "hard_fail":
		atomic.AddInt64(&m.VerifierHardFail, 1)
	}
}

// RoleCallCount returns the number of calls made for a role.
func (m *Metrics) RoleCallCount(role string) int64 {
	m.roleMutex.RLock()
	defer m.roleMutex.RUnlock()
	return m.roleCallsByRole[role]
}

// Snapshot returns a point-in-time view of all counters.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.roleMutex.RLock()
	byRole := make(map[string]int64, len(m.roleCallsByRole))
	for role, count := range m.roleCallsByRole {
		byRole[role] = count
	}
	m.roleMutex.RUnlock()

	return map[string]interface{}{
		"request_count":      atomic.LoadInt64(&m.RequestCount),
		"error_count":        atomic.LoadInt64(&m.ErrorCount),
		"cache_hits":         atomic.LoadInt64(&m.CacheHits),
		"cache_misses":       atomic.LoadInt64(&m.CacheMisses),
		"role_calls":         atomic.LoadInt64(&m.RoleCalls),
		"role_calls_by_role": byRole,
		"fallback_retries":   atomic.LoadInt64(&m.FallbackRetries),
		"repair_rounds":      atomic.LoadInt64(&m.RepairRounds),
		"verifier_pass":      atomic.LoadInt64(&m.VerifierPasses),
		"verifier_repaired":  atomic.LoadInt64(&m.VerifierRepairs),
		"verifier_hard_fail": atomic.LoadInt64(&m.VerifierHardFail),
		"uptime_seconds":     time.Since(m.StartTime).Seconds(),
	}
}
