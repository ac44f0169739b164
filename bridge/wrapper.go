package bridge

import (
	"bytes"
	"encoding/binary"
	"math"
	"reflect"
	"strings"

	"github.com/openvita/hle-runtime/abi"
	"github.com/openvita/hle-runtime/cpu"
	"github.com/openvita/hle-runtime/emu"
	"github.com/openvita/hle-runtime/errors"
	"github.com/openvita/hle-runtime/mem"
)

// addrSetter is implemented by *mem.Ptr[T]; the marshaler uses it to detect
// and construct guest-pointer parameters.
type addrSetter interface {
	SetAddr(mem.Address)
}

var (
	envType    = reflect.TypeOf((*emu.Env)(nil))
	tidType    = reflect.TypeOf(cpu.ThreadID(0))
	stringType = reflect.TypeOf("")
	addrType   = reflect.TypeOf(mem.Address(0))
	setterType = reflect.TypeOf((*addrSetter)(nil)).Elem()
)

type paramClass uint8

const (
	classWord paramClass = iota
	classPair
	classAddress
	classPtr
	classStructRegs
	classStructIndirect
)

type paramSpec struct {
	typ   reflect.Type
	class paramClass
	size  uint32
	words int
}

type retClass uint8

const (
	retNone retClass = iota
	retSigned32
	retUnsigned32
	retWide
)

// Wrapper is a compiled marshaled entry point: one handler plus the
// per-parameter marshal plan derived from its signature. Wrappers are
// built once at registration and are immutable afterwards.
type Wrapper struct {
	fn     reflect.Value
	name   string
	params []paramSpec
	ret    retClass
}

// Compile reflects over a handler's signature and builds its wrapper.
// Any signature the calling convention cannot carry is rejected here; a
// compiled wrapper never fails to marshal a well-formed call.
func Compile(name string, handler any) (*Wrapper, error) {
	t := reflect.TypeOf(handler)
	if t == nil || t.Kind() != reflect.Func {
		return nil, errors.BadSignature(errors.PhaseRegister, name, "handler must be a function")
	}
	if t.IsVariadic() {
		return nil, errors.BadSignature(errors.PhaseRegister, name, "handler cannot be variadic")
	}
	if t.NumIn() < 3 || t.In(0) != envType || t.In(1) != tidType || t.In(2) != stringType {
		return nil, errors.BadSignature(errors.PhaseRegister, name,
			"leading parameters must be (*emu.Env, cpu.ThreadID, string)")
	}

	w := &Wrapper{fn: reflect.ValueOf(handler), name: name}

	for i := 3; i < t.NumIn(); i++ {
		spec, err := classifyParam(name, t.In(i))
		if err != nil {
			return nil, err
		}
		w.params = append(w.params, spec)
	}

	switch t.NumOut() {
	case 0:
		w.ret = retNone
	case 1:
		out := t.Out(0)
		switch out.Kind() {
		case reflect.Int32:
			w.ret = retSigned32
		case reflect.Uint32:
			w.ret = retUnsigned32
		case reflect.Int64, reflect.Uint64:
			w.ret = retWide
		default:
			return nil, errors.UnsupportedType(name, out.String())
		}
	default:
		return nil, errors.BadSignature(errors.PhaseRegister, name, "at most one return value")
	}

	return w, nil
}

func classifyParam(name string, t reflect.Type) (paramSpec, error) {
	spec := paramSpec{typ: t}

	if t == addrType {
		spec.class = classAddress
		return spec, nil
	}
	if t.Kind() == reflect.Struct && reflect.PointerTo(t).Implements(setterType) {
		spec.class = classPtr
		return spec, nil
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Float32:
		spec.class = classWord
		return spec, nil
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		spec.class = classPair
		return spec, nil
	case reflect.Int, reflect.Uint, reflect.Uintptr:
		// Host-width integers have no guest width; handlers declare
		// int32/uint32 explicitly.
		return spec, errors.UnsupportedType(name, t.String())
	case reflect.Struct:
		n := binary.Size(reflect.New(t).Elem().Interface())
		if n < 0 {
			return spec, errors.UnsupportedType(name, t.String())
		}
		spec.size = uint32(n)
		spec.words = (n + abi.WordSize - 1) / abi.WordSize
		if spec.words <= abi.AggregateWordLimit {
			spec.class = classStructRegs
		} else {
			spec.class = classStructIndirect
		}
		return spec, nil
	default:
		return spec, errors.UnsupportedType(name, t.String())
	}
}

// Signature renders the handler's guest-facing parameter and return
// types, for listings and diagnostics. The leading context parameters
// are omitted.
func (w *Wrapper) Signature() string {
	t := w.fn.Type()
	var b strings.Builder
	b.WriteByte('(')
	for i := 3; i < t.NumIn(); i++ {
		if i > 3 {
			b.WriteString(", ")
		}
		b.WriteString(t.In(i).String())
	}
	b.WriteByte(')')
	if t.NumOut() > 0 {
		b.WriteString(" -> ")
		b.WriteString(t.Out(0).String())
	}
	return b.String()
}

// Result is the outcome of one marshaled invocation.
type Result struct {
	// Args holds the native argument values, captured for tracing.
	Args []any

	// Ret is the raw return payload; Wide selects a register pair.
	Ret    uint64
	Wide   bool
	HasRet bool
}

// Invoke marshals arguments from the thread's registers and stack, calls
// the handler, and encodes the result. captureArgs retains the native
// argument values for the tracer.
func (w *Wrapper) Invoke(env *emu.Env, th cpu.Thread, captureArgs bool) (Result, error) {
	cursor := abi.NewArgCursor(th, env.Mem)

	args := make([]reflect.Value, 0, 3+len(w.params))
	args = append(args, reflect.ValueOf(env), reflect.ValueOf(th.ID()), reflect.ValueOf(w.name))

	var res Result
	if captureArgs {
		res.Args = make([]any, 0, len(w.params))
	}

	for _, spec := range w.params {
		av, err := w.marshalParam(env, cursor, spec)
		if err != nil {
			return res, err
		}
		if captureArgs {
			res.Args = append(res.Args, av.Interface())
		}
		args = append(args, av)
	}

	out := w.fn.Call(args)

	switch w.ret {
	case retNone:
	case retSigned32:
		// Sign is preserved through the full register width: a top-bit
		// status decodes as a negative integer on the guest side.
		res.Ret = uint64(uint32(int32(out[0].Int())))
		res.HasRet = true
	case retUnsigned32:
		res.Ret = uint64(uint32(out[0].Uint()))
		res.HasRet = true
	case retWide:
		if out[0].Kind() == reflect.Int64 {
			res.Ret = uint64(out[0].Int())
		} else {
			res.Ret = out[0].Uint()
		}
		res.Wide = true
		res.HasRet = true
	}

	return res, nil
}

func (w *Wrapper) marshalParam(env *emu.Env, cursor *abi.ArgCursor, spec paramSpec) (reflect.Value, error) {
	switch spec.class {
	case classWord:
		word, err := cursor.NextWord()
		if err != nil {
			return reflect.Value{}, err
		}
		return decodeWord(spec.typ, word), nil

	case classPair:
		pair, err := cursor.NextPair()
		if err != nil {
			return reflect.Value{}, err
		}
		rv := reflect.New(spec.typ).Elem()
		switch spec.typ.Kind() {
		case reflect.Int64:
			rv.SetInt(int64(pair))
		case reflect.Uint64:
			rv.SetUint(pair)
		case reflect.Float64:
			rv.SetFloat(math.Float64frombits(pair))
		}
		return rv, nil

	case classAddress:
		word, err := cursor.NextWord()
		if err != nil {
			return reflect.Value{}, err
		}
		rv := reflect.New(spec.typ).Elem()
		rv.SetUint(uint64(word))
		return rv, nil

	case classPtr:
		// Lazy: only the address crosses here; translation happens when
		// the handler dereferences, so null is legal to pass.
		word, err := cursor.NextWord()
		if err != nil {
			return reflect.Value{}, err
		}
		pv := reflect.New(spec.typ)
		pv.Interface().(addrSetter).SetAddr(mem.Address(word))
		return pv.Elem(), nil

	case classStructRegs:
		block, err := cursor.Block(spec.words)
		if err != nil {
			return reflect.Value{}, err
		}
		return decodeStruct(spec.typ, block[:spec.size])

	case classStructIndirect:
		word, err := cursor.NextWord()
		if err != nil {
			return reflect.Value{}, err
		}
		view, err := env.Mem.Translate(mem.Address(word), spec.size)
		if err != nil {
			return reflect.Value{}, errors.Wrap(errors.PhaseMarshal, errors.KindInvalidAddress, err,
				"by-value aggregate read")
		}
		return decodeStruct(spec.typ, view)
	}
	return reflect.Value{}, errors.UnsupportedType(w.name, spec.typ.String())
}

func decodeWord(t reflect.Type, word uint32) reflect.Value {
	rv := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		rv.SetBool(word != 0)
	case reflect.Int8:
		rv.SetInt(int64(int8(word)))
	case reflect.Int16:
		rv.SetInt(int64(int16(word)))
	case reflect.Int32:
		rv.SetInt(int64(int32(word)))
	case reflect.Uint8:
		rv.SetUint(uint64(uint8(word)))
	case reflect.Uint16:
		rv.SetUint(uint64(uint16(word)))
	case reflect.Uint32:
		rv.SetUint(uint64(word))
	case reflect.Float32:
		rv.SetFloat(float64(math.Float32frombits(word)))
	}
	return rv
}

func decodeStruct(t reflect.Type, data []byte) (reflect.Value, error) {
	pv := reflect.New(t)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, pv.Interface()); err != nil {
		return reflect.Value{}, errors.Wrap(errors.PhaseMarshal, errors.KindInvalidInput, err,
			"decode by-value aggregate")
	}
	return pv.Elem(), nil
}
