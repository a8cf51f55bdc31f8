// Command peggmlffi is the Foreign Interface (spec §6, "FI"): flat C-ABI
// functions returning only double or const char*, backed by the peggml
// package's Registry, Session and Error Channel. It is intentionally thin --
// every function here does argument marshaling and numeric-status mapping
// only; all behavior lives in the peggml package.
//
// Build as a C shared library/archive (`go build -buildmode=c-shared`) to
// link into a host scripting environment.
package main

// #include <stdlib.h>
import "C"

import (
	"sync"
	"unsafe"

	"github.com/maiple/peggml"
)

var (
	engineOnce sync.Once
	engine     *peggml.Engine
)

func eng() *peggml.Engine {
	engineOnce.Do(func() { engine = peggml.NewEngine() })
	return engine
}

// strBuf is the single process-wide buffer string-returning getters
// write into (spec §6, "String return convention"): the host must copy it
// before the next string-returning call. It is owned by us, not the host,
// so callers never need to free it.
var (
	strMu  sync.Mutex
	strBuf *C.char
)

func storeString(s string) *C.char {
	strMu.Lock()
	defer strMu.Unlock()

	if strBuf != nil {
		C.free(unsafe.Pointer(strBuf))
	}

	strBuf = C.CString(s)

	return strBuf
}

// --- Error channel -----------------------------------------------------

// peggml_error returns 1 if an error is set, 0 otherwise. The source
// returns the inverse of its own documented intent; this follows the
// documented (and correct) semantics instead -- see DESIGN.md.
//
//export peggml_error
func peggml_error() C.double {
	if eng().EC.Occurred() {
		return 1
	}

	return 0
}

//export peggml_error_str
func peggml_error_str() *C.char {
	return storeString(eng().EC.Message())
}

//export peggml_set_error
func peggml_set_error(s *C.char) C.double {
	eng().EC.SetString(C.GoString(s))
	return 0
}

//export peggml_clear_error
func peggml_clear_error() C.double {
	eng().EC.Clear()
	return 0
}

// --- Engine --------------------------------------------------------------

//export peggml_abi_test
func peggml_abi_test() *C.char {
	return storeString(peggml.AbiTest)
}

//export peggml_version
func peggml_version() C.double {
	return C.double(peggml.Version)
}

//export peggml_set_stack_size
func peggml_set_stack_size(size C.double) C.double {
	e := eng()

	if err := e.Session.SetStackSize(int(size)); err != nil {
		e.EC.Set(err)

		pe, _ := err.(*peggml.Error)
		if pe != nil && pe.Kind == peggml.KindResource {
			return 2
		}

		return 1
	}

	return 0
}

//export peggml_get_stack_size
func peggml_get_stack_size() C.double {
	return C.double(eng().Session.StackSize())
}

//export peggml_stack_current_depth
func peggml_stack_current_depth() C.double {
	return C.double(eng().Session.CurrentStackDepth())
}

//export peggml_estimate_stack_usage
func peggml_estimate_stack_usage() C.double {
	return C.double(eng().Session.EstimatePeakStackUsage())
}

// --- Parsers ---------------------------------------------------------------

//export peggml_parser_create
func peggml_parser_create(grammar *C.char) C.double {
	e := eng()

	handle, diagnostics, err := e.Registry.Create(C.GoString(grammar))
	if err != nil {
		if diagnostics != "" {
			e.EC.SetString(diagnostics)
			return -1
		}

		e.EC.SetString("grammar syntax invalid")

		return -2
	}

	return C.double(handle)
}

//export peggml_parser_destroy
func peggml_parser_destroy(handle C.double) C.double {
	e := eng()

	if err := e.Registry.Destroy(int(handle)); err != nil {
		e.EC.Set(err)
		return 1
	}

	return 0
}

//export peggml_parser_enable_packrat
func peggml_parser_enable_packrat(handle C.double) C.double {
	e := eng()

	p, err := e.Registry.Get(int(handle))
	if err != nil {
		e.EC.Set(err)
		return 1
	}

	p.EnablePackrat()

	return 0
}

//export peggml_parser_set_symbol_id
func peggml_parser_set_symbol_id(handle C.double, name *C.char, id C.double) C.double {
	e := eng()

	if id == 0 {
		e.EC.SetString("cannot set symbol id to 0.")
		return 2
	}

	if name == nil {
		e.EC.SetString("argument string is nullptr")
		return 3
	}

	p, err := e.Registry.Get(int(handle))
	if err != nil {
		e.EC.Set(err)
		return 1
	}

	if err := p.SetSymbolID(e.Session, C.GoString(name), float64(id)); err != nil {
		e.EC.Set(err)
		return 1
	}

	return 0
}

// --- Parse session -----------------------------------------------------

//export peggml_parse_begin
func peggml_parse_begin(handle C.double, text *C.char) C.double {
	e := eng()

	p, err := e.Registry.Get(int(handle))
	if err != nil {
		e.EC.Set(err)
		return -2
	}

	if err := e.Session.ParseBegin(p, C.GoString(text)); err != nil {
		e.EC.Set(err)
		return -1
	}

	return 0
}

//export peggml_parse_next
func peggml_parse_next() C.double {
	return C.double(eng().Session.ParseNext())
}

//export peggml_get_root_uuid
func peggml_get_root_uuid() C.double {
	return C.double(eng().Session.RootUUID())
}

//export peggml_parse_elt_get_uuid
func peggml_parse_elt_get_uuid() C.double {
	u, err := eng().Session.EltUUID()
	if err != nil {
		eng().EC.Set(err)
		return 0
	}

	return C.double(u)
}

//export peggml_parse_elt_get_string
func peggml_parse_elt_get_string() *C.char {
	s, err := eng().Session.EltString()
	if err != nil {
		eng().EC.Set(err)
		return storeString("")
	}

	return storeString(s)
}

//export peggml_parse_elt_get_string_offset
func peggml_parse_elt_get_string_offset() C.double {
	v, err := eng().Session.EltStringOffset()
	if err != nil {
		eng().EC.Set(err)
		return 0
	}

	return C.double(v)
}

//export peggml_parse_elt_get_string_line
func peggml_parse_elt_get_string_line() C.double {
	v, err := eng().Session.EltStringLine()
	if err != nil {
		eng().EC.Set(err)
		return 0
	}

	return C.double(v)
}

//export peggml_parse_elt_get_string_column
func peggml_parse_elt_get_string_column() C.double {
	v, err := eng().Session.EltStringColumn()
	if err != nil {
		eng().EC.Set(err)
		return 0
	}

	return C.double(v)
}

//export peggml_parse_elt_get_choice
func peggml_parse_elt_get_choice() C.double {
	v, err := eng().Session.EltChoice()
	if err != nil {
		eng().EC.Set(err)
		return 0
	}

	return C.double(v)
}

//export peggml_parse_elt_get_child_count
func peggml_parse_elt_get_child_count() C.double {
	v, err := eng().Session.EltChildCount()
	if err != nil {
		eng().EC.Set(err)
		return 0
	}

	return C.double(v)
}

//export peggml_parse_elt_get_child_uuid
func peggml_parse_elt_get_child_uuid(i C.double) C.double {
	v, err := eng().Session.EltChildUUID(int(i))
	if err != nil {
		eng().EC.Set(err)
		return -1
	}

	return C.double(v)
}

//export peggml_parse_elt_get_token_count
func peggml_parse_elt_get_token_count() C.double {
	v, err := eng().Session.EltTokenCount()
	if err != nil {
		eng().EC.Set(err)
		return 0
	}

	return C.double(v)
}

//export peggml_parse_elt_get_token_offset
func peggml_parse_elt_get_token_offset(i C.double) C.double {
	v, err := eng().Session.EltTokenOffset(int(i))
	if err != nil {
		eng().EC.Set(err)
		return 0
	}

	return C.double(v)
}

//export peggml_parse_elt_get_token_string
func peggml_parse_elt_get_token_string(i C.double) *C.char {
	s, err := eng().Session.EltTokenString(int(i))
	if err != nil {
		eng().EC.Set(err)
		return storeString("")
	}

	return storeString(s)
}

//export peggml_parse_elt_get_token_number
func peggml_parse_elt_get_token_number() C.double {
	v, err := eng().Session.EltTokenNumber()
	if err != nil {
		eng().EC.Set(err)
		return 0
	}

	return C.double(v)
}

// main is unused: this package is built with -buildmode=c-shared or
// -buildmode=c-archive, never run directly. It is required to make the
// package buildable as a Go command.
func main() {}
