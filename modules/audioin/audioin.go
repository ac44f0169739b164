// Package audioin implements the SceAudioIn service: the guest-facing
// audio capture port. One hardware input port is modeled; capture data
// comes from a pluggable source (silence by default, or a WAV file
// standing in for the host microphone).
package audioin

import (
	"github.com/openvita/hle-runtime/bridge"
	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/emu"
	"github.com/openvita/hle-runtime/mem"
	"github.com/openvita/hle-runtime/resource"
)

const moduleName = "SceAudioIn"

// The hardware exposes a single input port.
const portID int32 = 0

// PortType selects the capture pipeline.
type PortType int32

const (
	PortTypeVoice PortType = 0
	PortTypeRaw   PortType = 2
)

// Param carries the port format and status selectors.
type Param int32

const (
	ParamFormatS16Mono Param = 0
	GetStatusMute      Param = 1
)

// Service status codes.
const (
	ErrFatal             uint32 = 0x80260100
	ErrInvalidPort       uint32 = 0x80260101
	ErrInvalidSize       uint32 = 0x80260102
	ErrInvalidSampleFreq uint32 = 0x80260103
	ErrInvalidPortType   uint32 = 0x80260104
	ErrInvalidPointer    uint32 = 0x80260105
	ErrInvalidPortParam  uint32 = 0x80260106
	ErrPortFull          uint32 = 0x80260107
	ErrOutOfMemory       uint32 = 0x80260108
	ErrNotOpened         uint32 = 0x80260109
	ErrBusy              uint32 = 0x8026010A
	ErrInvalidParameter  uint32 = 0x8026010B
)

func init() {
	bridge.RegisterDebugStr(func(p PortType) string {
		switch p {
		case PortTypeVoice:
			return "PORT_TYPE_VOICE"
		case PortTypeRaw:
			return "PORT_TYPE_RAW"
		default:
			return bridge.DebugStr(int32(p))
		}
	})
	bridge.RegisterDebugStr(func(p Param) string {
		switch p {
		case ParamFormatS16Mono:
			return "PARAM_FORMAT_S16_MONO"
		case GetStatusMute:
			return "GETSTATUS_MUTE"
		default:
			return bridge.DebugStr(int32(p))
		}
	})
}

type port struct {
	source Source
	grain  int32
	freq   int32
}

// Drop releases the capture source when the port closes.
func (p *port) Drop() {
	if c, ok := p.source.(interface{ Close() error }); ok {
		c.Close()
	}
}

type state struct {
	ports   *resource.Table[*port]
	factory SourceFactory
}

func getState(env *emu.Env) *state {
	return emu.State(env, moduleName, func(*emu.Env) *state {
		return &state{
			ports:   resource.NewTable[*port](1),
			factory: SilenceFactory,
		}
	})
}

// SetSourceFactory replaces the capture source used by subsequently
// opened ports.
func SetSourceFactory(env *emu.Env, f SourceFactory) {
	getState(env).factory = f
}

// Module returns the service's static export table.
func Module() bridge.Module {
	return bridge.Module{
		Name:    moduleName,
		Version: "3.570.0",
		Exports: []bridge.Export{
			bridge.Func(0x39B50DC1, "sceAudioInOpenPort", sceAudioInOpenPort),
			bridge.Func(0x3A61B8C4, "sceAudioInReleasePort", sceAudioInReleasePort),
			bridge.Func(0x638ADD2D, "sceAudioInInput", sceAudioInInput),
			bridge.Func(0xA8BB0701, "sceAudioInGetAdopt", sceAudioInGetAdopt),
			bridge.Func(0x566AC433, "sceAudioInGetStatus", sceAudioInGetStatus),
			bridge.Func(0x03B9E1D0, "sceAudioInGetInput", sceAudioInGetInput),
			bridge.Func(0x4D1A40F7, "sceAudioInGetMicGain", sceAudioInGetMicGain),
			bridge.Func(0x7A536FF1, "sceAudioInSetMicGain", sceAudioInSetMicGain),
			bridge.Func(0x8A0E9A45, "sceAudioInSetMute", sceAudioInSetMute),
			bridge.Func(0xC2F91B07, "sceAudioInSelectInput", sceAudioInSelectInput),
			bridge.Func(0xD6A6B57F, "sceAudioInInputWithInputDeviceState", sceAudioInInputWithInputDeviceState),
			bridge.Func(0xEB20F1BD, "sceAudioInOpenPortForDiag", sceAudioInOpenPortForDiag),
		},
	}
}

func sceAudioInGetAdopt(_ *emu.Env, _ cpu.ThreadID, _ string, portType PortType) int32 {
	if portType != PortTypeVoice && portType != PortTypeRaw {
		return bridge.RetErr(ErrInvalidPortType)
	}
	return 1
}

func sceAudioInGetStatus(env *emu.Env, _ cpu.ThreadID, _ string, sel int32) int32 {
	if Param(sel) != GetStatusMute {
		return bridge.RetErr(ErrInvalidParameter)
	}
	if getState(env).ports.Len() > 0 {
		return 0
	}
	return 1
}

func sceAudioInOpenPort(env *emu.Env, _ cpu.ThreadID, _ string, portType PortType, grain, freq int32, param Param) int32 {
	st := getState(env)
	if st.ports.Len() > 0 {
		return bridge.RetErr(ErrPortFull)
	}
	if param != ParamFormatS16Mono {
		return bridge.RetErr(ErrInvalidPortParam)
	}
	if portType != PortTypeVoice && portType != PortTypeRaw {
		return bridge.RetErr(ErrInvalidPortType)
	}
	if portType == PortTypeVoice {
		if freq != 16000 {
			return bridge.RetErr(ErrInvalidSampleFreq)
		}
		if grain != 256 && grain != 512 {
			return bridge.RetErr(ErrInvalidParameter)
		}
	}
	if portType == PortTypeRaw {
		if freq != 16000 && freq != 48000 {
			return bridge.RetErr(ErrInvalidSampleFreq)
		}
		if (grain != 256 && freq == 16000) || (grain != 768 && freq == 48000) {
			return bridge.RetErr(ErrInvalidParameter)
		}
	}

	src, err := st.factory(freq, grain)
	if err != nil {
		return bridge.RetErr(ErrFatal)
	}

	p := &port{source: src, grain: grain, freq: freq}
	// The capacity-1 insert is the atomic claim; a concurrent open that
	// loses the race sees PORT_FULL.
	if _, ok := st.ports.Insert(p); !ok {
		p.Drop()
		return bridge.RetErr(ErrPortFull)
	}
	return portID
}

func sceAudioInInput(env *emu.Env, _ cpu.ThreadID, _ string, portNum int32, dest mem.Ptr[int16]) int32 {
	st := getState(env)
	if st.ports.Len() == 0 {
		return bridge.RetErr(ErrNotOpened)
	}
	if portNum != portID {
		return bridge.RetErr(ErrInvalidPortParam)
	}
	if dest.IsNull() {
		return bridge.RetErr(ErrInvalidPointer)
	}

	p, ok := st.ports.Get(resource.Handle(portNum + 1))
	if !ok {
		return bridge.RetErr(ErrNotOpened)
	}

	samples := make([]int16, p.grain)
	if err := p.source.Read(samples); err != nil {
		return bridge.RetErr(ErrBusy)
	}
	if err := dest.SetN(env.Mem, samples); err != nil {
		return bridge.RetErr(ErrInvalidPointer)
	}
	return 0
}

func sceAudioInReleasePort(env *emu.Env, _ cpu.ThreadID, _ string, portNum int32) int32 {
	st := getState(env)
	if portNum != portID {
		return bridge.RetErr(ErrInvalidPortParam)
	}
	// A second release of the same port fails here rather than touching
	// the already-dropped capture source.
	if _, ok := st.ports.Remove(resource.Handle(portNum + 1)); !ok {
		return bridge.RetErr(ErrNotOpened)
	}
	return 0
}

func sceAudioInGetInput(env *emu.Env, _ cpu.ThreadID, name string) int32 {
	return env.Report.Unimplemented(name)
}

func sceAudioInGetMicGain(env *emu.Env, _ cpu.ThreadID, name string) int32 {
	return env.Report.Unimplemented(name)
}

func sceAudioInSetMicGain(env *emu.Env, _ cpu.ThreadID, name string) int32 {
	return env.Report.Unimplemented(name)
}

func sceAudioInSetMute(env *emu.Env, _ cpu.ThreadID, name string) int32 {
	return env.Report.Unimplemented(name)
}

func sceAudioInSelectInput(env *emu.Env, _ cpu.ThreadID, name string) int32 {
	return env.Report.Unimplemented(name)
}

func sceAudioInInputWithInputDeviceState(env *emu.Env, _ cpu.ThreadID, name string) int32 {
	return env.Report.Unimplemented(name)
}

func sceAudioInOpenPortForDiag(env *emu.Env, _ cpu.ThreadID, name string) int32 {
	return env.Report.Unimplemented(name)
}
