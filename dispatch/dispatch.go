// Package dispatch implements the call dispatcher: the single choke point
// where an intercepted guest service call is resolved against the module
// registry, marshaled, invoked, and its result written back to guest state.
package dispatch

import (
	"sync"

	"go.uber.org/zap"

	"github.com/openvita/hle-runtime/abi"
	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/emu"
	"github.com/openvita/hle-runtime/errors"
	"github.com/openvita/hle-runtime/mem"
	"github.com/openvita/hle-runtime/registry"
)

type varKey struct {
	module string
	nid    uint32
}

// Dispatcher resolves and executes intercepted guest calls. Every call runs
// to completion synchronously on the guest thread that issued it; the
// dispatcher itself never blocks across dispatch cycles and provides no
// mutual exclusion between handlers.
type Dispatcher struct {
	reg    *registry.Registry
	env    *emu.Env
	tracer *Tracer
	log    *zap.Logger

	varMu sync.Mutex
	vars  map[varKey]mem.Address
}

// New creates a dispatcher over a built registry and session environment.
// A nil tracer disables tracing.
func New(reg *registry.Registry, env *emu.Env, tracer *Tracer, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	if tracer == nil {
		tracer = NewTracer(nil)
	}
	return &Dispatcher{
		reg:    reg,
		env:    env,
		tracer: tracer,
		log:    log,
		vars:   make(map[varKey]mem.Address),
	}
}

// Tracer returns the dispatcher's tracer.
func (d *Dispatcher) Tracer() *Tracer { return d.tracer }

// Dispatch runs one intercepted call: resolve, marshal, invoke, finalize.
// The returned word is what was written to the guest return register. A
// registry miss invokes nothing and returns the fixed not-found status;
// the miss is logged once per (module, nid) pair.
func (d *Dispatcher) Dispatch(th cpu.Thread, module string, nid uint32) uint32 {
	entry, ok := d.reg.Lookup(module, nid)
	if !ok || entry.IsVar() {
		d.env.Report.UnresolvedImport(module, nid)
		abi.WriteRet32(th, emu.StatusUnresolvedImport)
		return emu.StatusUnresolvedImport
	}

	res, err := entry.Invoke(d.env, th, d.tracer.Enabled())
	if err != nil {
		// Registration validates every layout, so this only fires when
		// guest state itself is corrupt (an unmapped stack pointer).
		d.log.Error("marshal fault",
			zap.String("export", entry.Name),
			zap.Int32("thread", int32(th.ID())),
			zap.Error(err))
		abi.WriteRet32(th, emu.StatusNotImplemented)
		return emu.StatusNotImplemented
	}

	ret := uint32(res.Ret)
	switch {
	case !res.HasRet:
		ret = th.Reg(abi.RetReg)
	case res.Wide:
		abi.WriteRet64(th, res.Ret)
	default:
		abi.WriteRet32(th, ret)
	}

	d.tracer.call(entry, th.ID(), res)
	return ret
}

// ResolveVar materializes a variable export, caching the guest address so
// the factory runs at most once per session.
func (d *Dispatcher) ResolveVar(module string, nid uint32) (mem.Address, error) {
	entry, ok := d.reg.Lookup(module, nid)
	if !ok || !entry.IsVar() {
		d.env.Report.UnresolvedImport(module, nid)
		return mem.Null, errors.NotFound(module, nid)
	}

	k := varKey{module: module, nid: nid}
	d.varMu.Lock()
	defer d.varMu.Unlock()

	if addr, ok := d.vars[k]; ok {
		return addr, nil
	}
	addr, err := entry.Materialize(d.env)
	if err != nil {
		return mem.Null, err
	}
	d.vars[k] = addr
	return addr, nil
}
