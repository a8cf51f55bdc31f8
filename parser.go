package peggml

import "sync"

// Parser owns a compiled grammar plus the Symbol Table for it (spec §4.3,
// "ST"): the mapping from rule name to the caller-chosen nonzero symbol id
// that decides which rule completions the host gets to observe. One
// compiled grammar per handle; it is never rebuilt.
type Parser struct {
	mu      sync.Mutex
	engine  grammarEngine
	symbols map[string]float64
}

func newParser(grammar string) (p *Parser, diagnostics string, err error) {
	engine, diag, err := newGoPegEngine(grammar)
	if err != nil {
		return nil, diag, err
	}

	return &Parser{engine: engine, symbols: map[string]float64{}}, "", nil
}

// EnablePackrat turns on packrat memoization for this parser's grammar.
func (p *Parser) EnablePackrat() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.engine.EnablePackrat()
}

// SetSymbolID registers id as the symbol returned by parse_next whenever
// rule name completes, wiring the session's generic "record, allocate a
// UUID, yield" action onto the underlying grammar rule. Replaces any prior
// registration for the same rule.
func (p *Parser) SetSymbolID(session *Session, name string, id float64) error {
	if id == 0 {
		return newError(KindMisuse, "cannot set symbol id to 0.")
	}

	if name == "" {
		return newError(KindMisuse, "argument string is nullptr")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.engine.SetAction(name, session.makeAction(id)); err != nil {
		return err
	}

	if prev, ok := p.symbols[name]; ok {
		if log := session.logger(); log != nil {
			log.WithField("rule", name).WithField("old_id", prev).WithField("new_id", id).
				Debug("set_symbol_id replacing prior registration")
		}
	}

	p.symbols[name] = id

	return nil
}

// SymbolID reports the id currently registered for rule name, if any.
func (p *Parser) SymbolID(name string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.symbols[name]

	return id, ok
}

// parse runs the compiled grammar against text and returns the topmost
// rule's UUID. Only ever called from within the Parse Session's Context
// Switch body.
func (p *Parser) parse(text string) (root float64, err error) {
	return p.engine.Parse(text)
}
