package emu

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Fixed ABI-level status codes returned by the bridge itself.
const (
	// StatusNotImplemented is the generic failure an unimplemented handler
	// reports. Top bit set: the guest sees a negative status.
	StatusNotImplemented uint32 = 0x80020003

	// StatusUnresolvedImport is returned for a registry miss without
	// invoking any handler.
	StatusUnresolvedImport uint32 = 0x8002D0C9
)

// Reporter emits one diagnostic per distinct unimplemented or stubbed call
// across the session. It is shared mutable state reached from arbitrary
// guest threads, so the seen-set check is internally synchronized. A
// Reporter is constructed at session start and injected wherever needed;
// it is never a package global.
type Reporter struct {
	log  *zap.Logger
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewReporter creates a reporter logging through the given logger.
func NewReporter(log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{
		log:  log,
		seen: make(map[string]struct{}),
	}
}

// first records name and reports whether this is its first sighting.
func (r *Reporter) first(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[name]; ok {
		return false
	}
	r.seen[name] = struct{}{}
	return true
}

// Unimplemented reports a call whose handler does no work. Logged once per
// display name; every call returns the generic failure status so the
// handler can produce its return expression in one line:
//
//	return env.Report.Unimplemented(name)
func (r *Reporter) Unimplemented(name string) int32 {
	if r.first(name) {
		r.log.Warn("unimplemented", zap.String("export", name))
	}
	status := StatusNotImplemented
	return int32(status)
}

// Stubbed reports a call that intentionally returns a placeholder. Logged
// once per display name; returns 0 so guests probing capability proceed as
// if the call succeeded.
func (r *Reporter) Stubbed(name, info string) int32 {
	if r.first(name) {
		r.log.Warn("stubbed", zap.String("export", name), zap.String("info", info))
	}
	return 0
}

// UnresolvedImport reports a registry miss, once per (module, nid) pair.
func (r *Reporter) UnresolvedImport(module string, nid uint32) {
	key := fmt.Sprintf("%s!0x%08X", module, nid)
	if r.first(key) {
		r.log.Warn("unresolved import",
			zap.String("module", module),
			zap.String("nid", fmt.Sprintf("0x%08X", nid)))
	}
}
