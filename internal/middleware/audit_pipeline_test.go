package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"SwapGate/internal/domain/models"
	domrepo "SwapGate/internal/domain/repository"
)

type fakeSink struct {
	mu        sync.Mutex
	decisions []models.DecisionRecord
	threats   []models.AdversarialThreat
	fail      bool
	closed    bool
}

func (s *fakeSink) RecordDecision(_ context.Context, rec models.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("sink down")
	}
	s.decisions = append(s.decisions, rec)
	return nil
}

func (s *fakeSink) RecordThreat(_ context.Context, _ string, t models.AdversarialThreat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("sink down")
	}
	s.threats = append(s.threats, t)
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decisions), len(s.threats)
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errors: make(map[string]int)} }

func (m *fakeMetrics) RecordDecision(string, bool, string) {}
func (m *fakeMetrics) RecordThreat(string, string, string) {}
func (m *fakeMetrics) RecordReplayEntries(int)             {}
func (m *fakeMetrics) RecordStageDuration(string, float64) {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

var _ domrepo.Metrics = (*fakeMetrics)(nil)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestPipelineDeliversToAllSinks(t *testing.T) {
	a, b := &fakeSink{}, &fakeSink{}
	p := NewAuditPipeline(newFakeMetrics(), []domrepo.AuditSink{a, b})
	p.Start(context.Background())
	defer p.Stop()

	rec := models.DecisionRecord{QuoteID: "q1", Stage: "quote", Accepted: true, Timestamp: time.Now()}
	if err := p.RecordDecision(context.Background(), rec); err != nil {
		t.Fatalf("record decision: %v", err)
	}
	if err := p.RecordThreat(context.Background(), "q1", models.AdversarialThreat{Code: "THREAT_REPLAY_ATTEMPT"}); err != nil {
		t.Fatalf("record threat: %v", err)
	}

	waitFor(t, func() bool {
		d1, t1 := a.counts()
		d2, t2 := b.counts()
		return d1 == 1 && t1 == 1 && d2 == 1 && t2 == 1
	})
}

func TestPipelineFlushesOnStop(t *testing.T) {
	s := &fakeSink{}
	p := NewAuditPipeline(newFakeMetrics(), []domrepo.AuditSink{s})

	// Enqueue before Start so everything sits in the buffer.
	for i := 0; i < 5; i++ {
		_ = p.RecordDecision(context.Background(), models.DecisionRecord{QuoteID: "q", Stage: "quote"})
	}
	p.Start(context.Background())
	p.Stop()

	d, _ := s.counts()
	if d != 5 {
		t.Fatalf("delivered %d decisions, want 5", d)
	}
}

func TestPipelineDropsWhenBufferFull(t *testing.T) {
	m := newFakeMetrics()
	p := NewAuditPipeline(m, []domrepo.AuditSink{&fakeSink{}}, WithBufferSize(1))

	// Not started, so the single slot fills and the rest drop.
	for i := 0; i < 3; i++ {
		_ = p.RecordDecision(context.Background(), models.DecisionRecord{Stage: "quote"})
	}
	if got := m.errorCount("audit_buffer_full"); got != 2 {
		t.Fatalf("dropped %d records, want 2", got)
	}
}

func TestPipelineCountsSinkFailures(t *testing.T) {
	m := newFakeMetrics()
	s := &fakeSink{fail: true}
	p := NewAuditPipeline(m, []domrepo.AuditSink{s})
	p.Start(context.Background())
	defer p.Stop()

	_ = p.RecordDecision(context.Background(), models.DecisionRecord{Stage: "quote"})
	waitFor(t, func() bool { return m.errorCount("audit_sink_write") >= 1 })
}

func TestPipelineCloseClosesSinks(t *testing.T) {
	s := &fakeSink{}
	p := NewAuditPipeline(newFakeMetrics(), []domrepo.AuditSink{s})
	p.Start(context.Background())
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if !closed {
		t.Fatalf("sink not closed")
	}
}
