package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/openvita/hle-runtime/bridge"
	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/emu"
	bridgeerr "github.com/openvita/hle-runtime/errors"
	"github.com/openvita/hle-runtime/mem"
)

func okHandler(*emu.Env, cpu.ThreadID, string) int32 { return 0 }

func oneModule(name string, exports ...bridge.Export) bridge.Module {
	return bridge.Module{Name: name, Version: "1.0.0", Exports: exports}
}

func TestNew_LookupReturnsRegisteredEntry(t *testing.T) {
	reg, err := New(
		oneModule("SceAudioIn",
			bridge.Func(0xA8BB0701, "sceAudioInGetAdopt", okHandler),
			bridge.Func(0x638ADD2D, "sceAudioInInput", okHandler),
		),
		oneModule("SceAudioOut",
			bridge.Func(0xA8BB0701, "sceAudioOutGetAdopt", okHandler),
		),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if reg.Len() != 3 {
		t.Fatalf("Len = %d", reg.Len())
	}

	e, ok := reg.Lookup("SceAudioIn", 0x638ADD2D)
	if !ok {
		t.Fatal("lookup miss for registered pair")
	}
	if e.Name != "sceAudioInInput" || e.Module != "SceAudioIn" || e.NID != 0x638ADD2D {
		t.Fatalf("wrong entry: %+v", e)
	}

	// Same NID under another module resolves independently.
	e2, ok := reg.Lookup("SceAudioOut", 0xA8BB0701)
	if !ok || e2.Name != "sceAudioOutGetAdopt" {
		t.Fatalf("cross-module entry: %+v, %v", e2, ok)
	}

	if _, ok := reg.Lookup("SceAudioIn", 0xDEADBEEF); ok {
		t.Fatal("lookup hit for unregistered NID")
	}
	if _, ok := reg.Lookup("SceNet", 0xA8BB0701); ok {
		t.Fatal("lookup hit for unregistered module")
	}
}

func TestNew_DuplicateNIDRejected(t *testing.T) {
	_, err := New(oneModule("SceAudioIn",
		bridge.Func(0xA8BB0701, "sceAudioInGetAdopt", okHandler),
		bridge.Func(0xA8BB0701, "sceAudioInShadow", okHandler),
	))
	if err == nil {
		t.Fatal("expected duplicate NID to abort registration")
	}
	if !errors.Is(err, &bridgeerr.Error{Phase: bridgeerr.PhaseRegister, Kind: bridgeerr.KindDuplicateNID}) {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestNew_DuplicateModuleRejected(t *testing.T) {
	_, err := New(
		oneModule("SceAudioIn", bridge.Func(1, "a", okHandler)),
		oneModule("SceAudioIn", bridge.Func(2, "b", okHandler)),
	)
	if err == nil {
		t.Fatal("expected duplicate module to abort registration")
	}
}

func TestNew_BadSignatureRejected(t *testing.T) {
	_, err := New(oneModule("SceAudioIn",
		bridge.Func(1, "oddball", func(s string) {}),
	))
	if err == nil {
		t.Fatal("expected signature rejection at registration")
	}
	if !errors.Is(err, &bridgeerr.Error{Phase: bridgeerr.PhaseRegister, Kind: bridgeerr.KindRegistration}) {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestNew_BadVersionRejected(t *testing.T) {
	_, err := New(bridge.Module{Name: "SceAudioIn", Version: "latest"})
	if err == nil {
		t.Fatal("expected version parse failure")
	}
}

func TestNew_VarExport(t *testing.T) {
	reg, err := New(oneModule("SceSysmem",
		bridge.Var(0x221D9119, "sceKernelDefaults", func(env *emu.Env) (mem.Address, error) {
			return 0x8100_0000, nil
		}),
	))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e, ok := reg.Lookup("SceSysmem", 0x221D9119)
	if !ok || !e.IsVar() {
		t.Fatalf("var entry: %+v, %v", e, ok)
	}
	addr, err := e.Materialize(nil)
	if err != nil || addr != 0x8100_0000 {
		t.Fatalf("Materialize = 0x%08X, %v", addr, err)
	}
}

func TestModules_Enumeration(t *testing.T) {
	reg, err := New(
		bridge.Module{Name: "SceZ", Version: "3.570.0", Exports: []bridge.Export{bridge.Func(1, "z", okHandler)}},
		bridge.Module{Name: "SceA", Version: "1.50.0", Exports: []bridge.Export{bridge.Func(1, "a", okHandler)}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mods := reg.Modules()
	if len(mods) != 2 || mods[0].Name != "SceA" || mods[1].Name != "SceZ" {
		t.Fatalf("modules not name-ordered: %+v", mods)
	}
	if mods[1].Version.String() != "3.570.0" {
		t.Fatalf("version = %s", mods[1].Version)
	}
}

func TestLookup_ConcurrentReaders(t *testing.T) {
	reg, err := New(oneModule("SceAudioIn",
		bridge.Func(0xA8BB0701, "sceAudioInGetAdopt", okHandler),
	))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if _, ok := reg.Lookup("SceAudioIn", 0xA8BB0701); !ok {
					t.Error("lookup miss")
					return
				}
			}
		}()
	}
	wg.Wait()
}
