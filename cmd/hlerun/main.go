package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/dispatch"
	"github.com/openvita/hle-runtime/emu"
	"github.com/openvita/hle-runtime/mem"
	"github.com/openvita/hle-runtime/modules"
	"github.com/openvita/hle-runtime/modules/audioin"
	"github.com/openvita/hle-runtime/registry"
)

// Scratch guest layout for the harness: one RAM region with the stack at
// the top and the materialization heap above the region midpoint.
const (
	guestBase  = 0x8100_0000
	guestSize  = 0x0010_0000
	guestStack = guestBase + guestSize - 0x1000
	heapBase   = guestBase + guestSize/2
	heapSize   = guestSize / 4
)

func main() {
	var (
		moduleName  = flag.String("module", "", "Service module name (e.g. SceAudioIn)")
		nidStr      = flag.String("nid", "", "Export NID (hex, e.g. 0x39B50DC1)")
		argsStr     = flag.String("args", "", "Register arguments (comma-separated, hex or decimal)")
		wavFile     = flag.String("wav", "", "WAV file backing the audio capture source")
		list        = flag.Bool("list", false, "List registered modules and exports, then exit")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if !*list && !*interactive && (*moduleName == "" || *nidStr == "") {
		fmt.Fprintln(os.Stderr, "Usage: hlerun -list")
		fmt.Fprintln(os.Stderr, "       hlerun -module <name> -nid <0xNID> [-args w0,w1,...] [-wav file]")
		fmt.Fprintln(os.Stderr, "       hlerun -i  (interactive mode)")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *interactive {
		if err := runInteractive(*wavFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(log, *moduleName, *nidStr, *argsStr, *wavFile, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(log *zap.Logger, moduleName, nidStr, argsStr, wavFile string, listOnly bool) error {
	reg, err := registry.New(modules.All()...)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	if listOnly {
		for _, mod := range reg.Modules() {
			fmt.Printf("%s %s\n", mod.Name, mod.Version)
			for _, e := range mod.Entries {
				fmt.Printf("  0x%08X %s%s\n", e.NID, e.Name, e.Signature())
			}
		}
		return nil
	}

	env, err := newSession(log, wavFile)
	if err != nil {
		return err
	}

	nid, err := parseWord(nidStr)
	if err != nil {
		return fmt.Errorf("parse nid: %w", err)
	}

	th := cpu.NewState(1)
	th.SetSP(guestStack)
	if argsStr != "" {
		for i, tok := range strings.Split(argsStr, ",") {
			w, err := parseWord(strings.TrimSpace(tok))
			if err != nil {
				return fmt.Errorf("parse arg %d: %w", i, err)
			}
			if i < 4 {
				th.SetReg(i, w)
			} else {
				off := mem.Address(guestStack + uint32(i-4)*4)
				if err := env.Mem.WriteU32(off, w); err != nil {
					return fmt.Errorf("spill arg %d: %w", i, err)
				}
			}
		}
	}

	d := dispatch.New(reg, env, dispatch.NewTracer(log), log)
	d.Tracer().SetEnabled(true)
	d.Tracer().Subscribe(printObserver{})

	ret := d.Dispatch(th, moduleName, nid)
	fmt.Printf("r0 = 0x%08X (%d)\n", ret, int32(ret))
	return nil
}

// printObserver echoes each traced call to stdout.
type printObserver struct{}

func (printObserver) OnCall(r dispatch.Record) {
	fmt.Printf("[%s] %s\n", r.Module, r.String())
}

func newSession(log *zap.Logger, wavFile string) (*emu.Env, error) {
	space := mem.NewSpace()
	if err := space.MapRegion(guestBase, guestSize); err != nil {
		return nil, fmt.Errorf("map guest region: %w", err)
	}
	env := emu.NewEnv(space, mem.NewBumpAllocator(heapBase, heapSize), emu.NewReporter(log))

	if wavFile != "" {
		audioin.SetSourceFactory(env, audioin.WAVFactory(func() (io.ReadSeeker, error) {
			return os.Open(wavFile)
		}))
	}
	return env, nil
}

func parseWord(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		// Negative words are accepted for signed status arguments.
		n, nerr := strconv.ParseInt(s, 0, 32)
		if nerr != nil {
			return 0, err
		}
		return uint32(int32(n)), nil
	}
	return uint32(v), nil
}
