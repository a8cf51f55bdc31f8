package peggml

import (
	"fmt"
	"regexp"
	"strings"

	peg "github.com/yhirose/go-peg"
)

// goPegEngine adapts github.com/yhirose/go-peg -- the Go port of the same
// cpp-peglib the original implementation (original_source/peggml.h) embeds
// -- to the grammarEngine interface.
type goPegEngine struct {
	parser *peg.Parser

	// currentText is pinned for the duration of a Parse call so semantic
	// actions can recover line/column information from a byte offset;
	// go-peg's Values only carries the offset.
	currentText string

	// tokenRules records which rules declare an explicit "<...>" capture in
	// the grammar source, distinguishing elt_string() (always the whole
	// matched substring, spec §3 "sv") from elt_token_*() (only the rules
	// that actually capture a token, spec §3 "tokens"). go-peg's Values only
	// surfaces one candidate substring per match (v.Token()), so this is
	// derived from the grammar text itself rather than from the engine.
	tokenRules map[string]bool
}

var ruleHeaderRe = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*<-`)

// scanTokenRules splits grammar into its rule definitions and reports, per
// rule name, whether its body contains a "<...>" token-capture operator.
func scanTokenRules(grammar string) map[string]bool {
	headers := ruleHeaderRe.FindAllStringSubmatchIndex(grammar, -1)
	rules := map[string]bool{}

	for i, h := range headers {
		name := grammar[h[2]:h[3]]

		end := len(grammar)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}

		body := grammar[h[1]:end]
		rules[name] = strings.Contains(body, "<") && strings.Contains(body, ">")
	}

	return rules
}

// newGoPegEngine compiles grammar, collecting "line:col: msg" diagnostics
// the same way peggml_parser_create does in the original source.
func newGoPegEngine(grammar string) (engine grammarEngine, diagnostics string, err error) {
	var diagLines []string

	parser, perr := peg.NewParser(grammar)
	if perr != nil {
		return nil, perr.Error(), newError(KindGrammarCompile, "%s", perr.Error())
	}

	parser.Log = func(line, col int, msg string) {
		diagLines = append(diagLines, fmt.Sprintf("%d:%d: %s", line, col, msg))
	}

	if perr := parser.Prepare(); perr != nil {
		diag := strings.Join(diagLines, "\n")
		return nil, diag, newError(KindGrammarCompile, "%s", perr.Error())
	}

	return &goPegEngine{parser: parser, tokenRules: scanTokenRules(grammar)}, "", nil
}

func (e *goPegEngine) SetAction(rule string, fn ActionFunc) error {
	r, ok := e.parser.Grammar[rule]
	if !ok {
		return newError(KindMisuse, "unknown rule %q", rule)
	}

	r.Action = func(v *peg.Values, d peg.Data) (interface{}, error) {
		children := make([]float64, 0, len(v.Vs))

		for _, cv := range v.Vs {
			if f, ok := cv.(float64); ok {
				children = append(children, f)
			}
		}

		text := v.Token()
		line, col := lineColumn(e.currentText, v.Pos)

		sv := &SemanticValues{
			Text:     text,
			Offset:   v.Pos,
			Line:     line,
			Column:   col,
			Choice:   v.Choice,
			Children: children,
		}

		if e.tokenRules[rule] {
			sv.Tokens = []Token{{Text: text, Offset: v.Pos}}
		}

		return fn(sv)
	}

	return nil
}

func (e *goPegEngine) EnablePackrat() {
	e.parser.EnablePackratParsing = true
}

func (e *goPegEngine) Parse(text string) (float64, error) {
	e.currentText = text
	defer func() { e.currentText = "" }()

	val, err := e.parser.ParseAndGetValue(text, nil)
	if err != nil {
		return -1, newError(KindParseFailure, "%s", err.Error())
	}

	f, _ := val.(float64)

	return f, nil
}

// lineColumn turns a byte offset into a 1-based (line, column) pair the way
// cpp-peglib's sv.line_info() does.
func lineColumn(text string, offset int) (line, column int) {
	line, column = 1, 1

	if offset > len(text) {
		offset = len(text)
	}

	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}

	return
}
