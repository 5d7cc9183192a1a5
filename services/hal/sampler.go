package hal

import (
	"context"
	"errors"
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/x/timex"
)

// ErrNotReady from Collect asks the sampler to retry after a backoff.
var ErrNotReady = errors.New("hal: not ready")

// Source is a two-phase reading: Trigger starts a conversion and says
// how long to wait, Collect fetches it.
type Source interface {
	Trigger(ctx context.Context) (time.Duration, error)
	Collect(ctx context.Context) ([]Reading, error)
}

// Reading is one capability value produced by a Source.
type Reading struct {
	Cap   capKey
	Value any
}

type sampleReq struct {
	id   string
	src  Source
	prio bool
	msg  *bus.Message // read request awaiting a reply, if any
}

type sampleResult struct {
	id       string
	readings []Reading
	err      error
	msgs     []*bus.Message
}

type samplerConfig struct {
	TriggerTimeout time.Duration
	CollectTimeout time.Duration
	RetryBackoff   time.Duration
	MaxRetries     int
	QueueLen       int
}

type pendingSample struct {
	req     sampleReq
	due     time.Time
	retries int
	msgs    []*bus.Message
}

// sampler runs Sources off the service loop so slow buses never stall
// controls. One sample per source id is in flight; later requests join it.
type sampler struct {
	cfg     samplerConfig
	reqQ    chan sampleReq
	sink    chan<- sampleResult
	pending map[string]*pendingSample
	timer   *time.Timer
}

func newSampler(cfg samplerConfig, sink chan<- sampleResult) *sampler {
	if cfg.TriggerTimeout <= 0 {
		cfg.TriggerTimeout = 100 * time.Millisecond
	}
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = 250 * time.Millisecond
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 15 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 6
	}
	if cfg.QueueLen <= 0 {
		cfg.QueueLen = 16
	}
	return &sampler{
		cfg:     cfg,
		reqQ:    make(chan sampleReq, cfg.QueueLen),
		sink:    sink,
		pending: map[string]*pendingSample{},
		timer:   time.NewTimer(time.Hour),
	}
}

// Submit queues req. Periodic (non-priority) samples are dropped when
// the queue is full; priority ones wait briefly.
func (w *sampler) Submit(req sampleReq) bool {
	select {
	case w.reqQ <- req:
		return true
	default:
	}
	if !req.prio {
		return false
	}
	select {
	case w.reqQ <- req:
		return true
	case <-time.After(5 * time.Millisecond):
		return false
	}
}

func (w *sampler) Start(ctx context.Context) {
	timex.DrainTimer(w.timer)
	go w.run(ctx)
}

func (w *sampler) run(ctx context.Context) {
	for {
		if next := w.minDue(); next.IsZero() {
			timex.ResetTimer(w.timer, time.Hour)
		} else {
			timex.ResetTimer(w.timer, time.Until(next))
		}
		select {
		case <-ctx.Done():
			return
		case req := <-w.reqQ:
			if p, ok := w.pending[req.id]; ok {
				if req.msg != nil {
					p.msgs = append(p.msgs, req.msg)
				}
				continue
			}
			p := &pendingSample{req: req}
			if req.msg != nil {
				p.msgs = append(p.msgs, req.msg)
			}
			w.trigger(ctx, p)
		case <-w.timer.C:
			w.collectDue(ctx, time.Now())
		}
	}
}

func (w *sampler) trigger(ctx context.Context, p *pendingSample) {
	tctx, cancel := context.WithTimeout(ctx, w.cfg.TriggerTimeout)
	after, err := p.req.src.Trigger(tctx)
	cancel()
	if err != nil {
		w.emit(sampleResult{id: p.req.id, err: err, msgs: p.msgs})
		return
	}
	p.due = time.Now().Add(after)
	w.pending[p.req.id] = p
}

func (w *sampler) collectDue(ctx context.Context, now time.Time) {
	for id, p := range w.pending {
		if now.Before(p.due) {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, w.cfg.CollectTimeout)
		rs, err := p.req.src.Collect(cctx)
		cancel()
		switch {
		case err == nil:
			delete(w.pending, id)
			w.emit(sampleResult{id: id, readings: rs, msgs: p.msgs})
		case errors.Is(err, ErrNotReady) && p.retries < w.cfg.MaxRetries:
			p.retries++
			p.due = now.Add(w.cfg.RetryBackoff)
		default:
			delete(w.pending, id)
			w.emit(sampleResult{id: id, err: err, msgs: p.msgs})
		}
	}
}

func (w *sampler) emit(r sampleResult) { w.sink <- r }

func (w *sampler) minDue() time.Time {
	var min time.Time
	for _, p := range w.pending {
		if min.IsZero() || p.due.Before(min) {
			min = p.due
		}
	}
	return min
}
