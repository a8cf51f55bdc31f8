package peggml

import (
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// match holds the state a registered semantic action yields into, valid
// only between a yielding parse_next and the next call to parse_next (spec
// §3, "current_sv").
type match struct {
	uuid     float64
	symbolID float64
	sv       *SemanticValues
}

// Session is the Parse Session (spec §4.4, "PS"): the singleton that drives
// exactly one parse on a CallStack, intercepts each observable rule
// completion, and exposes the current match to the host until it pulls the
// next one.
type Session struct {
	mu sync.Mutex

	cs *CallStack

	inProgress bool
	text       string
	nextUUID   float64
	rootUUID   float64

	current *match

	ec  *ErrorChannel
	log *logrus.Logger
}

// NewSession returns a Session with a default-sized CallStack, reporting
// failures into ec.
func NewSession(ec *ErrorChannel) *Session {
	return &Session{
		cs:       NewCallStack(DefaultStackSize),
		ec:       ec,
		rootUUID: -1,
	}
}

// SetLogger installs an optional structured logger for parse lifecycle
// events. A nil logger (the default) means the session never logs.
func (s *Session) SetLogger(l *logrus.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = l
}

func (s *Session) logger() *logrus.Entry {
	if s.log == nil {
		return nil
	}

	return logrus.NewEntry(s.log)
}

// SetStackSize reallocates the underlying CallStack. Fails if a parse is in
// progress or size <= 0.
func (s *Session) SetStackSize(bytes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inProgress {
		return newError(KindMisuse, "cannot set peggml stack size -- parse in progress.")
	}

	if bytes <= 0 {
		return newError(KindResource, "peggml stack size must be positive")
	}

	s.cs = NewCallStack(bytes)

	return nil
}

// StackSize returns the configured CallStack size in bytes.
func (s *Session) StackSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cs.GetStackSize()
}

// CurrentStackDepth delegates to the underlying CallStack.
func (s *Session) CurrentStackDepth() int64 {
	s.mu.Lock()
	cs := s.cs
	s.mu.Unlock()

	return cs.CurrentStackDepth()
}

// EstimatePeakStackUsage delegates to the underlying CallStack.
func (s *Session) EstimatePeakStackUsage() int64 {
	s.mu.Lock()
	cs := s.cs
	s.mu.Unlock()

	return cs.EstimatePeakStackUsage()
}

// makeAction builds the generic semantic action installed on every
// registered rule (spec §4.4): record the match, allocate its UUID, yield,
// and on resume return that UUID as the match's value.
func (s *Session) makeAction(symbolID float64) ActionFunc {
	return func(sv *SemanticValues) (float64, error) {
		s.mu.Lock()
		u := s.nextUUID
		s.nextUUID++
		s.current = &match{uuid: u, symbolID: symbolID, sv: sv}
		cs := s.cs
		s.mu.Unlock()

		cs.Yield()

		return u, nil
	}
}

// ParseBegin copies text into the session, pinned for the lifetime of the
// parse, and hands the parser's Parse call to the CallStack without running
// any of it yet -- the first ParseNext performs the first increment.
func (s *Session) ParseBegin(p *Parser, text string) error {
	s.mu.Lock()
	if s.inProgress {
		s.mu.Unlock()
		return newError(KindMisuse, "parse already in progress.")
	}

	s.text = text
	s.nextUUID = 0
	s.rootUUID = -1
	s.current = nil
	s.inProgress = true
	cs := s.cs
	log := s.logger()
	s.mu.Unlock()

	if log != nil {
		log.WithField("len", len(text)).Debug("parse_begin")
	}

	return cs.Begin(func() error {
		root, err := p.parse(text)

		s.mu.Lock()
		s.rootUUID = root
		s.mu.Unlock()

		return err
	})
}

// ParseNext resumes the CallStack and returns either the symbol id of the
// rule that just matched, or 0 once the parse has terminated or failed.
func (s *Session) ParseNext() float64 {
	s.mu.Lock()
	cs := s.cs
	log := s.logger()
	s.mu.Unlock()

	outcome, err := cs.Resume()
	if err != nil && outcome != Failed {
		s.ec.Set(err)
		return 0
	}

	switch outcome {
	case Yielded:
		s.mu.Lock()
		id := s.current.symbolID
		s.mu.Unlock()

		if log != nil {
			log.WithField("symbol_id", id).Debug("parse_next yielded")
		}

		return id
	case Terminated:
		s.mu.Lock()
		s.inProgress = false
		s.current = nil
		s.mu.Unlock()

		if log != nil {
			log.Debug("parse_next terminated")
		}

		return 0
	case Failed:
		s.mu.Lock()
		s.inProgress = false
		s.current = nil
		s.mu.Unlock()

		s.ec.Set(err)

		if log != nil {
			log.WithError(err).Warn("parse_next failed")
		}

		return 0
	default:
		return 0
	}
}

// RootUUID returns the UUID the topmost rule returned. Valid after the
// terminal ParseNext.
func (s *Session) RootUUID() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rootUUID
}

func (s *Session) currentMatch() (*match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, newError(KindMisuse, "no current match -- parse_next has not yielded")
	}

	return s.current, nil
}

// EltUUID returns the UUID allocated for the current match.
func (s *Session) EltUUID() (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return 0, err
	}

	return m.uuid, nil
}

// EltString returns the current match's full matched substring.
func (s *Session) EltString() (string, error) {
	m, err := s.currentMatch()
	if err != nil {
		return "", err
	}

	return m.sv.Text, nil
}

// EltStringOffset returns the current match's start byte offset.
func (s *Session) EltStringOffset() (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return 0, err
	}

	return float64(m.sv.Offset), nil
}

// EltStringLine returns the current match's 1-based start line.
func (s *Session) EltStringLine() (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return 0, err
	}

	return float64(m.sv.Line), nil
}

// EltStringColumn returns the current match's 1-based start column.
func (s *Session) EltStringColumn() (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return 0, err
	}

	return float64(m.sv.Column), nil
}

// EltChoice returns which alternative of an ordered-choice rule matched.
func (s *Session) EltChoice() (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return 0, err
	}

	return float64(m.sv.Choice), nil
}

// EltChildCount returns the number of already-yielded children.
func (s *Session) EltChildCount() (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return 0, err
	}

	return float64(len(m.sv.Children)), nil
}

// EltChildUUID returns the UUID of child i, range-checked.
func (s *Session) EltChildUUID(i int) (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return -1, err
	}

	if i < 0 || i >= len(m.sv.Children) {
		return -1, newError(KindOutOfRange, "index out of bounds")
	}

	return m.sv.Children[i], nil
}

// EltTokenCount returns the number of explicit token captures.
func (s *Session) EltTokenCount() (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return 0, err
	}

	return float64(len(m.sv.Tokens)), nil
}

// EltTokenOffset returns the start byte offset of token i, range-checked.
func (s *Session) EltTokenOffset(i int) (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return 0, err
	}

	if i < 0 || i >= len(m.sv.Tokens) {
		return 0, newError(KindOutOfRange, "index out of bounds")
	}

	return float64(m.sv.Tokens[i].Offset), nil
}

// EltTokenString returns the text of token i, range-checked.
func (s *Session) EltTokenString(i int) (string, error) {
	m, err := s.currentMatch()
	if err != nil {
		return "", err
	}

	if i < 0 || i >= len(m.sv.Tokens) {
		return "", newError(KindOutOfRange, "index out of bounds")
	}

	return m.sv.Tokens[i].Text, nil
}

// EltTokenNumber parses the first token as a real number.
func (s *Session) EltTokenNumber() (float64, error) {
	m, err := s.currentMatch()
	if err != nil {
		return 0, err
	}

	if len(m.sv.Tokens) == 0 {
		return 0, newError(KindTokenParse, "no tokens to parse")
	}

	n, perr := strconv.ParseFloat(m.sv.Tokens[0].Text, 64)
	if perr != nil {
		return 0, newError(KindTokenParse, "error occurred parsing number from token")
	}

	return n, nil
}
