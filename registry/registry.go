// Package registry aggregates every compiled-in module's export table into
// one global (module, NID) index. The registry is built once at startup;
// duplicate identifiers and malformed export signatures are fatal there.
// After construction it is immutable, so guest threads look entries up
// concurrently without locking.
package registry

import (
	"sort"

	"github.com/coreos/go-semver/semver"
	"go.uber.org/zap"

	"github.com/openvita/hle-runtime/bridge"
	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/emu"
	"github.com/openvita/hle-runtime/errors"
	"github.com/openvita/hle-runtime/mem"
)

// Entry is one resolved export: the module and NID it was registered under,
// its display name, and the compiled entry point. Entries are read-only for
// the process lifetime.
type Entry struct {
	Module  string
	Version *semver.Version
	Name    string
	NID     uint32

	wrapper *bridge.Wrapper
	factory bridge.VarFactory
}

// IsVar reports whether the entry is a data-symbol export.
func (e *Entry) IsVar() bool { return e.factory != nil }

// Invoke marshals and calls a function export.
func (e *Entry) Invoke(env *emu.Env, th cpu.Thread, captureArgs bool) (bridge.Result, error) {
	return e.wrapper.Invoke(env, th, captureArgs)
}

// Signature renders a function export's marshaled signature for tooling;
// data symbols have none.
func (e *Entry) Signature() string {
	if e.IsVar() {
		return "var"
	}
	return e.wrapper.Signature()
}

// Materialize runs a variable export's factory. Callers cache the address;
// the factory itself runs at most once per session via the dispatcher.
func (e *Entry) Materialize(env *emu.Env) (mem.Address, error) {
	return e.factory(env)
}

// ModuleInfo describes one registered module for tooling.
type ModuleInfo struct {
	Name    string
	Version *semver.Version
	Entries []*Entry
}

type key struct {
	module string
	nid    uint32
}

// Registry is the global import index. Immutable after New.
type Registry struct {
	entries map[key]*Entry
	modules []ModuleInfo
}

// New builds the registry from static module tables. Every failure here is
// a registration invariant violation: duplicate (module, NID) pairs,
// unparseable module versions, and export signatures the calling
// convention cannot carry all abort initialization.
func New(mods ...bridge.Module) (*Registry, error) {
	r := &Registry{entries: make(map[key]*Entry)}
	log := Logger()

	seenModules := make(map[string]struct{}, len(mods))
	for _, mod := range mods {
		if mod.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseRegister, "module name cannot be empty")
		}
		if _, dup := seenModules[mod.Name]; dup {
			return nil, errors.New(errors.PhaseRegister, errors.KindRegistration).
				Module(mod.Name).
				Detail("module registered twice").
				Build()
		}
		seenModules[mod.Name] = struct{}{}

		ver, err := semver.NewVersion(mod.Version)
		if err != nil {
			return nil, errors.InvalidVersion(mod.Name, mod.Version, err)
		}

		info := ModuleInfo{Name: mod.Name, Version: ver}
		for _, exp := range mod.Exports {
			entry, err := compile(mod.Name, ver, exp)
			if err != nil {
				return nil, err
			}
			k := key{module: mod.Name, nid: exp.NID}
			if existing, dup := r.entries[k]; dup {
				return nil, errors.DuplicateNID(mod.Name, exp.NID, existing.Name)
			}
			r.entries[k] = entry
			info.Entries = append(info.Entries, entry)
		}

		sort.Slice(info.Entries, func(i, j int) bool {
			return info.Entries[i].NID < info.Entries[j].NID
		})
		r.modules = append(r.modules, info)
		log.Debug("module registered",
			zap.String("module", mod.Name),
			zap.String("version", ver.String()),
			zap.Int("exports", len(mod.Exports)))
	}

	sort.Slice(r.modules, func(i, j int) bool {
		return r.modules[i].Name < r.modules[j].Name
	})
	return r, nil
}

func compile(module string, ver *semver.Version, exp bridge.Export) (*Entry, error) {
	entry := &Entry{
		Module:  module,
		Version: ver,
		Name:    exp.Name,
		NID:     exp.NID,
	}
	switch {
	case exp.IsVar():
		if exp.Handler != nil {
			return nil, errors.Registration(module, exp.Name,
				errors.InvalidInput(errors.PhaseRegister, "export declares both handler and factory"))
		}
		entry.factory = exp.Factory
	case exp.Handler != nil:
		w, err := bridge.Compile(exp.Name, exp.Handler)
		if err != nil {
			return nil, errors.Registration(module, exp.Name, err)
		}
		entry.wrapper = w
	default:
		return nil, errors.Registration(module, exp.Name,
			errors.InvalidInput(errors.PhaseRegister, "export declares neither handler nor factory"))
	}
	return entry, nil
}

// Lookup resolves (module, NID) to its entry. Safe for concurrent use.
func (r *Registry) Lookup(module string, nid uint32) (*Entry, bool) {
	e, ok := r.entries[key{module: module, nid: nid}]
	return e, ok
}

// Modules enumerates registered modules, name-ordered.
func (r *Registry) Modules() []ModuleInfo {
	return r.modules
}

// Len returns the number of registered exports.
func (r *Registry) Len() int {
	return len(r.entries)
}
