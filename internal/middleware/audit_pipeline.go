package middleware

import (
	"context"
	"sync"
	"time"

	"SwapGate/internal/domain/models"
	domrepo "SwapGate/internal/domain/repository"
)

// auditEvent is either a decision record or a threat record.
type auditEvent struct {
	decision *models.DecisionRecord
	quoteID  string
	threat   *models.AdversarialThreat
}

// AuditPipeline is a middleware between the validation usecases and the
// audit sinks. Records are enqueued without blocking the request path and
// drained to every sink in the background, with backoff when a sink fails.
type AuditPipeline struct {
	sinks   []domrepo.AuditSink
	metrics domrepo.Metrics
	bufSize int
	bufCh   chan auditEvent
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

type PipelineOption func(*AuditPipeline)

// WithBufferSize sets the in-flight buffer before records are dropped.
func WithBufferSize(n int) PipelineOption {
	return func(p *AuditPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewAuditPipeline creates a new pipeline over the given sinks.
func NewAuditPipeline(metrics domrepo.Metrics, sinks []domrepo.AuditSink, opts ...PipelineOption) *AuditPipeline {
	p := &AuditPipeline{
		sinks:   sinks,
		metrics: metrics,
		bufSize: 1000, // default buffer
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan auditEvent, p.bufSize)
	return p
}

// Start launches background draining of buffered records.
func (p *AuditPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				p.drain(ctx)
				return
			case ev := <-p.bufCh:
				if p.deliver(ctx, ev) {
					backoff = 50 * time.Millisecond
					continue
				}
				// exponential backoff with cap
				if backoff < 2*time.Second {
					backoff *= 2
				}
				time.Sleep(backoff)
			}
		}
	}()
}

// Stop stops background draining after flushing what is buffered.
func (p *AuditPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	p.wg.Wait()
}

// RecordDecision enqueues a decision record without blocking the caller.
func (p *AuditPipeline) RecordDecision(ctx context.Context, rec models.DecisionRecord) error {
	p.enqueue(auditEvent{decision: &rec})
	return nil
}

// RecordThreat enqueues a threat record without blocking the caller.
func (p *AuditPipeline) RecordThreat(ctx context.Context, quoteID string, t models.AdversarialThreat) error {
	p.enqueue(auditEvent{quoteID: quoteID, threat: &t})
	return nil
}

// Close stops the pipeline and closes the underlying sinks.
func (p *AuditPipeline) Close() error {
	p.Stop()
	var first error
	for _, s := range p.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *AuditPipeline) enqueue(ev auditEvent) {
	select {
	case p.bufCh <- ev:
	default:
		p.metrics.RecordError("audit_buffer_full")
	}
}

// deliver writes one event to every sink. Returns false if any sink failed.
func (p *AuditPipeline) deliver(ctx context.Context, ev auditEvent) bool {
	ok := true
	for _, s := range p.sinks {
		var err error
		switch {
		case ev.decision != nil:
			err = s.RecordDecision(ctx, *ev.decision)
		case ev.threat != nil:
			err = s.RecordThreat(ctx, ev.quoteID, *ev.threat)
		}
		if err != nil {
			p.metrics.RecordError("audit_sink_write")
			ok = false
		}
	}
	return ok
}

// drain flushes whatever is left in the buffer on shutdown, best effort.
func (p *AuditPipeline) drain(ctx context.Context) {
	for {
		select {
		case ev := <-p.bufCh:
			p.deliver(ctx, ev)
		default:
			return
		}
	}
}

var _ domrepo.AuditSink = (*AuditPipeline)(nil)
