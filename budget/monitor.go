// Package budget tracks cumulative Context memory usage over the lifetime
// of a compile run, raising warning/critical thresholds as usage
// approaches a fixed byte ceiling.
package budget

import (
	"sync"
	"time"
)

// Sample is one stage's recorded memory usage.
type Sample struct {
	StageNumber int           `json:"stageNumber"`
	BytesUsed   int64         `json:"bytesUsed"`
	Timestamp   time.Time     `json:"timestamp"`
	Duration    time.Duration `json:"duration,omitempty"`
}

const maxSampleHistory = 1000

// Monitor tracks cumulative Context memory usage across pipeline stages,
// relative to a fixed ceiling, and flags when usage crosses warning or
// critical thresholds.
type Monitor struct {
	mu               sync.RWMutex
	maxBytes         int64
	totalBytes       int64
	stageCount       int
	history          []Sample
	warningThreshold float64
}

// NewMonitor creates a monitor against the given byte ceiling. A ceiling of
// 0 disables threshold checks (IsWarning/IsCritical always report false).
func NewMonitor(maxBytes int64) *Monitor {
	return &Monitor{
		maxBytes:         maxBytes,
		history:          make([]Sample, 0),
		warningThreshold: 0.8,
	}
}

// Record appends a usage sample for one stage. bytesUsed is the Context's
// absolute MemoryUsage() at that point, not a delta.
func (m *Monitor) Record(bytesUsed int64, duration time.Duration) Sample {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stageCount++
	m.totalBytes = bytesUsed
	sample := Sample{
		StageNumber: m.stageCount,
		BytesUsed:   bytesUsed,
		Timestamp:   time.Now(),
		Duration:    duration,
	}
	m.history = append(m.history, sample)
	if len(m.history) > maxSampleHistory {
		m.history = m.history[len(m.history)-maxSampleHistory:]
	}
	return sample
}

// Stats is a snapshot of cumulative usage statistics.
type Stats struct {
	MaxBytes       int64
	TotalBytes     int64
	RemainingBytes int64
	UsagePercent   float64
	StageCount     int
}

// GetStats returns a snapshot of cumulative statistics.
func (m *Monitor) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	remaining := m.maxBytes - m.totalBytes
	usagePercent := 0.0
	if m.maxBytes > 0 {
		usagePercent = float64(m.totalBytes) / float64(m.maxBytes) * 100
	}

	return Stats{
		MaxBytes:       m.maxBytes,
		TotalBytes:     m.totalBytes,
		RemainingBytes: remaining,
		UsagePercent:   usagePercent,
		StageCount:     m.stageCount,
	}
}

// IsWarning returns true when usage exceeds the warning threshold (80% by
// default).
func (m *Monitor) IsWarning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.maxBytes <= 0 {
		return false
	}
	return float64(m.totalBytes)/float64(m.maxBytes) >= m.warningThreshold
}

// IsCritical returns true when usage exceeds 95% of the ceiling.
func (m *Monitor) IsCritical() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.maxBytes <= 0 {
		return false
	}
	return float64(m.totalBytes)/float64(m.maxBytes) >= 0.95
}

// Reset clears all tracked data.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalBytes = 0
	m.stageCount = 0
	m.history = make([]Sample, 0)
}
