// Package peggml embeds a PEG engine behind a pull-based, flat-scalar
// foreign interface for host scripting environments that can only call
// C-style functions returning numbers or strings.
//
// The package itself is pure Go and has no cgo dependency; cmd/peggmlffi
// is the thin cgo-exported C ABI (spec §6, "FI") built on top of it.
package peggml

import "github.com/sirupsen/logrus"

// AbiTest is the constant string returned by the ABI probe.
const AbiTest = "gml-peglib"

// Version is the engine's reported version number.
const Version = 1.2

// Engine bundles the Parser Registry, the single Parse Session, and the
// Error Channel into the one process-wide object the Foreign Interface
// holds, matching spec's design note of encapsulating the source's global
// state into a Session/Registry pair kept alive "solely to preserve ABI
// compatibility".
type Engine struct {
	Registry *Registry
	Session  *Session
	EC       *ErrorChannel
}

// NewEngine returns a ready-to-use Engine with an empty registry, a clear
// error channel and no active parse.
func NewEngine() *Engine {
	ec := NewErrorChannel()

	return &Engine{
		Registry: NewRegistry(),
		Session:  NewSession(ec),
		EC:       ec,
	}
}

// SetLogger installs a structured logger for parse lifecycle diagnostics.
// The engine is silent (no output at all) until this is called.
func (e *Engine) SetLogger(l *logrus.Logger) {
	e.Session.SetLogger(l)
}
