package dispatch

import (
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/openvita/hle-runtime/bridge"
	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/registry"
)

// Record is one traced call: display name, formatted argument tokens, and
// the formatted result.
type Record struct {
	Module string
	Name   string
	Args   []string
	Result string
	NID    uint32
	Thread cpu.ThreadID
}

// String renders the record as a call expression.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteByte('(')
	b.WriteString(strings.Join(r.Args, ", "))
	b.WriteByte(')')
	if r.Result != "" {
		b.WriteString(" = ")
		b.WriteString(r.Result)
	}
	return b.String()
}

// Observer receives trace records as calls complete.
type Observer interface {
	OnCall(Record)
}

// Tracer formats and fans out call records when enabled. Emission happens
// on the dispatching guest thread, so observers must not block.
type Tracer struct {
	log       *zap.Logger
	enabled   atomic.Bool
	obsMu     sync.RWMutex
	observers []Observer
}

// NewTracer creates a tracer logging through the given logger.
func NewTracer(log *zap.Logger) *Tracer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracer{log: log}
}

// SetEnabled switches tracing on or off.
func (t *Tracer) SetEnabled(on bool) { t.enabled.Store(on) }

// Enabled reports whether calls are being traced.
func (t *Tracer) Enabled() bool { return t.enabled.Load() }

// Subscribe adds an observer for trace records.
func (t *Tracer) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Tracer) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Tracer) call(entry *registry.Entry, tid cpu.ThreadID, res bridge.Result) {
	if !t.Enabled() {
		return
	}

	rec := Record{
		Module: entry.Module,
		Name:   entry.Name,
		NID:    entry.NID,
		Thread: tid,
		Args:   make([]string, len(res.Args)),
	}
	for i, a := range res.Args {
		rec.Args[i] = bridge.DebugStr(a)
	}
	if res.HasRet {
		if res.Wide {
			rec.Result = bridge.DebugStr(res.Ret)
		} else {
			rec.Result = bridge.DebugStr(uint32(res.Ret))
		}
	}

	t.log.Debug("call",
		zap.String("module", rec.Module),
		zap.String("call", rec.String()),
		zap.Int32("thread", int32(rec.Thread)))

	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnCall(rec)
	}
}
