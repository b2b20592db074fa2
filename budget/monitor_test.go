package budget

import (
	"testing"
	"time"
)

func TestRecordAccumulatesHistory(t *testing.T) {
	m := NewMonitor(1000)
	m.Record(100, time.Millisecond)
	m.Record(500, 2*time.Millisecond)

	stats := m.GetStats()
	if stats.TotalBytes != 500 {
		t.Fatalf("expected totalBytes 500, got %d", stats.TotalBytes)
	}
	if stats.StageCount != 2 {
		t.Fatalf("expected stageCount 2, got %d", stats.StageCount)
	}
	if stats.RemainingBytes != 500 {
		t.Fatalf("expected remaining 500, got %d", stats.RemainingBytes)
	}
}

func TestIsWarningAndCritical(t *testing.T) {
	m := NewMonitor(1000)
	m.Record(850, 0)
	if !m.IsWarning() {
		t.Fatal("expected warning at 85%")
	}
	if m.IsCritical() {
		t.Fatal("did not expect critical at 85%")
	}

	m.Record(960, 0)
	if !m.IsCritical() {
		t.Fatal("expected critical at 96%")
	}
}

func TestZeroCeilingDisablesThresholds(t *testing.T) {
	m := NewMonitor(0)
	m.Record(1 << 30, 0)
	if m.IsWarning() || m.IsCritical() {
		t.Fatal("zero ceiling must disable threshold checks")
	}
}

func TestReset(t *testing.T) {
	m := NewMonitor(1000)
	m.Record(900, 0)
	m.Reset()
	stats := m.GetStats()
	if stats.TotalBytes != 0 || stats.StageCount != 0 {
		t.Fatalf("expected cleared stats, got %+v", stats)
	}
}
