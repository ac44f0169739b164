package emu

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/openvita/hle-runtime/mem"
)

func TestReporter_UnimplementedLogsOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewReporter(zap.New(core))

	first := r.Unimplemented("sceAudioInGetInput")
	second := r.Unimplemented("sceAudioInGetInput")

	status := StatusNotImplemented
	if first != int32(status) || second != int32(status) {
		t.Fatalf("expected generic failure from both calls, got %d, %d", first, second)
	}
	if first >= 0 {
		t.Fatal("expected negative status")
	}
	if n := logs.FilterMessage("unimplemented").Len(); n != 1 {
		t.Fatalf("expected exactly one log entry, got %d", n)
	}

	// A different display name logs again.
	r.Unimplemented("sceAudioInGetMicGain")
	if n := logs.FilterMessage("unimplemented").Len(); n != 2 {
		t.Fatalf("expected two log entries for two names, got %d", n)
	}
}

func TestReporter_StubbedLogsOnceReturnsPlaceholder(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewReporter(zap.New(core))

	first := r.Stubbed("sceAudioInGetStatus", "always unmuted")
	second := r.Stubbed("sceAudioInGetStatus", "always unmuted")

	if first != 0 || second != 0 {
		t.Fatalf("expected placeholder success from both calls, got %d, %d", first, second)
	}
	if n := logs.FilterMessage("stubbed").Len(); n != 1 {
		t.Fatalf("expected exactly one log entry, got %d", n)
	}
}

func TestReporter_UnresolvedImportDedupedByPair(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewReporter(zap.New(core))

	r.UnresolvedImport("SceAudioIn", 0x01234567)
	r.UnresolvedImport("SceAudioIn", 0x01234567)
	r.UnresolvedImport("SceAudioIn", 0x89ABCDEF)

	if n := logs.FilterMessage("unresolved import").Len(); n != 2 {
		t.Fatalf("expected two entries for two distinct pairs, got %d", n)
	}
}

func TestReporter_ConcurrentFirstSighting(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := NewReporter(zap.New(core))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Unimplemented("sceAudioInSelectInput")
		}()
	}
	wg.Wait()

	if n := logs.FilterMessage("unimplemented").Len(); n != 1 {
		t.Fatalf("expected one entry under concurrency, got %d", n)
	}
}

func TestEnvState(t *testing.T) {
	type audioState struct{ opens int }

	env := NewEnv(mem.NewSpace(), nil, NewReporter(nil))

	inits := 0
	get := func() *audioState {
		return State(env, "audioin", func(*Env) *audioState {
			inits++
			return &audioState{}
		})
	}

	a := get()
	a.opens++
	b := get()
	if a != b {
		t.Fatal("expected stable state pointer per key")
	}
	if b.opens != 1 {
		t.Fatalf("state not shared: %d", b.opens)
	}
	if inits != 1 {
		t.Fatalf("init ran %d times", inits)
	}
}
