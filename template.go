package fsmtemplate

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

var (
	commentLineRe = regexp.MustCompile(`^\s*#`)
	ruleLineRe    = regexp.MustCompile(`^\s+\^`)
)

// Template is a compiled FSM description: an ordered set of values, an
// ordered set of named states, and the working state of an in-progress
// or completed parse.
type Template struct {
	path string

	valueOrder []string
	colIndex   map[string]int
	values     map[string]*Value

	states  map[string]*State
	start   *State
	current *State

	results []Record

	logger    hclog.Logger
	debug     bool
	runLogger hclog.Logger

	// traceRule and traceState are swapped at construction time between
	// real hclog calls and no-ops depending on Settings.Debug, so tracing
	// costs nothing on the hot path when it's off.
	traceRule  func(rule *Rule, line string, matched bool)
	traceState func(name string)
}

// Location returns the template's source path (or a synthetic marker
// such as "<string>" when compiled from in-memory text).
func (t *Template) Location() Location { return Location{Path: t.path} }

// Values returns the value names in declaration order.
func (t *Template) Values() []string {
	out := make([]string, len(t.valueOrder))
	copy(out, t.valueOrder)
	return out
}

// KeyValueNames returns the names of every value carrying the Key
// option, for callers that want to deduplicate records themselves.
// The option itself has no runtime effect; it only marks identity
// columns for the caller.
func (t *Template) KeyValueNames() []string {
	var out []string
	for _, name := range t.valueOrder {
		if t.values[name].IsKey() {
			out = append(out, name)
		}
	}
	return out
}

// Compile compiles template source held in memory: a string, a []byte,
// or an io.Reader. For a filesystem path, use CompileFile.
func Compile(source any, opts ...Option) (*Template, error) {
	content, path, err := readSource(source)
	if err != nil {
		return nil, err
	}
	return compile(content, path, opts...)
}

// CompileFile reads and compiles a single template file. A missing or
// unreadable file is a fatal load error (TemplateNotFoundError).
func CompileFile(path string, opts ...Option) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateNotFoundError{Path: path}
	}
	return compile(string(data), path, opts...)
}

func readSource(source any) (content, path string, err error) {
	switch v := source.(type) {
	case string:
		return v, "<string>", nil
	case []byte:
		return string(v), "<bytes>", nil
	case io.Reader:
		b, err := io.ReadAll(v)
		if err != nil {
			return "", "", err
		}
		return string(b), "<reader>", nil
	default:
		return "", "", fmt.Errorf("fsmtemplate: unsupported source type %T", source)
	}
}

func compile(content, path string, opts ...Option) (*Template, error) {
	settings := newSettings(opts...)

	t := &Template{
		path:     path,
		values:   map[string]*Value{},
		colIndex: map[string]int{},
		states:   map[string]*State{},
		logger:   settings.Logger,
		debug:    settings.Debug,
	}
	t.installTraceHooks()

	if err := t.parseValues(content); err != nil {
		return nil, err
	}
	if err := t.parseStates(content); err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}

	t.logger.Debug("compiled template", "path", path, "values", len(t.valueOrder), "states", len(t.states))
	return t, nil
}

func (t *Template) installTraceHooks() {
	if !t.debug {
		t.traceRule = func(*Rule, string, bool) {}
		t.traceState = func(string) {}
		return
	}
	t.traceRule = func(rule *Rule, line string, matched bool) {
		t.runLogger.Trace("rule", "loc", rule.loc.String(), "line", line, "matched", matched)
	}
	t.traceState = func(name string) {
		t.runLogger.Trace("state transition", "to", name)
	}
}

func (t *Template) parseValues(content string) error {
	seen := map[string]Location{}
	for i, raw := range strings.Split(content, "\n") {
		lineNo := i + 1
		if commentLineRe.MatchString(raw) {
			continue
		}
		if !strings.HasPrefix(raw, "Value ") {
			continue
		}
		loc := Location{Path: t.path, Line: lineNo}
		v, err := parseValueLine(strings.TrimRight(raw, "\r"), loc)
		if err != nil {
			return err
		}
		if prev, ok := seen[v.name]; ok {
			return &TemplateError{Loc: loc, Msg: fmt.Sprintf("duplicate value %q, already declared at %s", v.name, prev)}
		}
		seen[v.name] = loc
		t.colIndex[v.name] = len(t.valueOrder)
		t.valueOrder = append(t.valueOrder, v.name)
		t.values[v.name] = v
	}
	return nil
}

func (t *Template) parseStates(content string) error {
	var current *State
	seen := map[string]Location{}
	for i, raw := range strings.Split(content, "\n") {
		lineNo := i + 1
		if commentLineRe.MatchString(raw) {
			continue
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if stateNamePattern.MatchString(raw) {
			loc := Location{Path: t.path, Line: lineNo}
			if prev, ok := seen[raw]; ok {
				return &TemplateError{Loc: loc, Msg: fmt.Sprintf("duplicate state %q, already declared at %s", raw, prev)}
			}
			seen[raw] = loc
			st := &State{Name: raw, loc: loc}
			t.states[raw] = st
			if raw == "Start" {
				t.start = st
			}
			current = st
			continue
		}
		if ruleLineRe.MatchString(raw) {
			if current == nil {
				return &TemplateError{Loc: Location{Path: t.path, Line: lineNo}, Msg: "rule appears before any state header"}
			}
			loc := Location{Path: t.path, Line: lineNo}
			rule, err := parseRuleLine(raw, loc, t.values)
			if err != nil {
				return err
			}
			current.Rules = append(current.Rules, rule)
			continue
		}
		// any other non-matching line inside a state is silently skipped
	}
	return nil
}

func (t *Template) validate() error {
	if t.start == nil {
		return &TemplateError{Loc: Location{Path: t.path}, Msg: "template has no Start state"}
	}
	for _, st := range t.states {
		for _, r := range st.Rules {
			if r.newState == "" {
				continue
			}
			if _, ok := t.states[r.newState]; !ok {
				return &TemplateError{Loc: r.loc, Msg: "rule references unknown state " + r.newState}
			}
		}
	}
	return nil
}

// NumRows implements ResultsView for Fillup.
func (t *Template) NumRows() int { return len(t.results) }

// CellAt implements ResultsView for Fillup.
func (t *Template) CellAt(row, col int) any { return t.results[row].cells[col] }

// SetCellAt implements ResultsView for Fillup.
func (t *Template) SetCellAt(row, col int, v any) { t.results[row].cells[col] = v }

// Reset returns every value to its fully-cleared state (calling each
// option's clearAll hook) and discards any accumulated results. This is
// an explicit, caller-invoked reset; Parse itself never calls it (see
// resetForParse, which instead re-runs each option's create hook, so
// Filldown and List state from a previous Parse is dropped as well).
func (t *Template) Reset() {
	for _, name := range t.valueOrder {
		t.values[name].ClearAll()
	}
	t.results = nil
	t.current = t.start
}

func (t *Template) resetForParse() {
	t.current = t.start
	t.results = nil
	for _, name := range t.valueOrder {
		t.values[name].reset()
	}
}

// Parse resets the template and runs the FSM over text, returning a
// snapshot of every record emitted during the run. Parse never leaves
// hidden state across invocations, so parsing the same text twice in
// succession yields identical results.
func (t *Template) Parse(text string) (Records, error) {
	t.resetForParse()

	runID := uuid.NewString()
	t.runLogger = t.logger.With("run_id", runID, "template", t.path)

	if text == "" {
		return nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		if err := t.parseLine(line); err != nil {
			return nil, err
		}
	}

	out := make(Records, len(t.results))
	copy(out, t.results)
	return out, nil
}

func (t *Template) parseLine(line string) error {
	for _, rule := range t.current.Rules {
		m := rule.matchRegex.FindStringSubmatch(line)
		matched := m != nil
		t.traceRule(rule, line, matched)
		if !matched {
			continue
		}

		for i, name := range rule.matchRegex.SubexpNames() {
			if i == 0 || name == "" {
				continue
			}
			v, ok := t.values[name]
			if !ok {
				// a named group that doesn't correspond to a declared
				// value is ignored rather than treated as an error.
				continue
			}
			v.SetCurrent(m[i], t, t.colIndex[name])
		}

		if err := t.runOperation(rule); err != nil {
			return err
		}

		if rule.newState != "" {
			t.current = t.states[rule.newState]
			t.traceState(rule.newState)
		}

		if rule.lineOp.breaksCurrentState() {
			break
		}
	}
	return nil
}

func (t *Template) runOperation(rule *Rule) error {
	switch rule.recordOp {
	case opRecord:
		return t.commitRecord()
	case opError:
		return &FSMError{Loc: rule.loc, Msg: rule.errorMessage}
	default:
		return nil
	}
}

// commitRecord implements the Record action: save every value, abort
// without appending if any value's save outcome is a skip, discard an
// all-null row, otherwise append and clear every value for the next
// record.
func (t *Template) commitRecord() error {
	if len(t.valueOrder) == 0 {
		return nil
	}

	outcome := outcomeKeep
	for _, name := range t.valueOrder {
		if t.values[name].Save() == outcomeSkip {
			outcome = outcomeSkip
		}
	}
	if outcome == outcomeSkip {
		for _, name := range t.valueOrder {
			t.values[name].Clear()
		}
		return nil
	}

	cells := make([]any, len(t.valueOrder))
	allNil := true
	for i, name := range t.valueOrder {
		c := t.values[name].current
		cells[i] = c
		if c != nil {
			allNil = false
		}
	}
	if allNil {
		return nil
	}

	t.results = append(t.results, NewRecord(t.valueOrder, cells))
	for _, name := range t.valueOrder {
		t.values[name].Clear()
	}
	return nil
}
