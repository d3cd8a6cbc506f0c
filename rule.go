package fsmtemplate

import (
	"regexp"
	"strings"
)

// recordOp is the closed set of record-lifecycle actions a rule may
// request when it matches. Representing it as an enum keeps the action
// grammar's alternation a compile-time constant instead of something
// that would need rebuilding whenever a new variant is added.
type recordOp int

const (
	opNone recordOp = iota
	opRecord
	opNoRecord
	opError
)

// lineOp is the closed set of per-line control actions: whether the
// engine keeps trying rules against the current input line (Continue)
// or moves on to the next line (Next, the default).
type lineOp int

const (
	lineNext lineOp = iota
	lineContinue
)

func (l lineOp) breaksCurrentState() bool {
	return l == lineNext
}

const (
	lineOpAlt   = `Continue|Next`
	recordOpAlt = `Record|NoRecord|Error`
	newStateAlt = `\w+|".*"`
)

var (
	lineOpActionRe  = regexp.MustCompile(`^(?P<lnop>` + lineOpAlt + `)(?:\.(?P<recop>` + recordOpAlt + `))?(?:\s+(?P<newstate>` + newStateAlt + `))?$`)
	recordOpOnlyRe  = regexp.MustCompile(`^(?P<recop>` + recordOpAlt + `)(?:\s+(?P<newstate>` + newStateAlt + `))?$`)
	newStateOnlyRe  = regexp.MustCompile(`^(?:\s*(?P<newstate>` + newStateAlt + `))?$`)
	dollarRefRe     = regexp.MustCompile(`\$(?:\{\w+\}|\w+)`)
)

// Rule is one line of one state: a compiled match regex plus an optional
// action (record op, line op, new state, error message).
type Rule struct {
	Line string
	loc  Location

	matchRegex *regexp.Regexp

	recordOp     recordOp
	lineOp       lineOp
	newState     string
	errorMessage string
}

// Location returns the rule's source position.
func (r *Rule) Location() Location { return r.loc }

func parseRuleLine(raw string, loc Location, values map[string]*Value) (*Rule, error) {
	line := strings.TrimSpace(raw)
	if len(line) <= 1 {
		return nil, &TemplateError{Loc: loc, Msg: "rule cannot be empty"}
	}

	matchPart := line
	var actionPart string
	hasAction := false
	if idx := strings.LastIndex(line, " -> "); idx >= 0 {
		matchPart = line[:idx]
		actionPart = line[idx+len(" -> "):]
		hasAction = true
	}

	pattern, err := substituteValueRefs(matchPart, values, loc)
	if err != nil {
		return nil, err
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &TemplateError{Loc: loc, Msg: "invalid match regex: " + err.Error()}
	}

	rule := &Rule{
		Line:       line,
		loc:        loc,
		matchRegex: re,
		lineOp:     lineNext,
	}

	if !hasAction {
		return rule, nil
	}

	if m := matchNames(lineOpActionRe, actionPart); m != nil {
		if m["lnop"] == "Continue" {
			rule.lineOp = lineContinue
		} else {
			rule.lineOp = lineNext
		}
		if recName := m["recop"]; recName != "" {
			rule.recordOp = recordOpFromName(recName)
		}
		rule.newState = unquoteState(m["newstate"])
		return rule, nil
	}

	if m := matchNames(recordOpOnlyRe, actionPart); m != nil {
		rule.recordOp = recordOpFromName(m["recop"])
		newState := unquoteState(m["newstate"])
		if rule.recordOp == opError {
			rule.errorMessage = newState
		} else {
			rule.newState = newState
		}
		return rule, nil
	}

	if m := matchNames(newStateOnlyRe, actionPart); m != nil {
		rule.newState = unquoteState(m["newstate"])
		return rule, nil
	}

	return nil, &TemplateError{Loc: loc, Msg: "unrecognized action: " + actionPart}
}

// substituteValueRefs rewrites every $name or ${name} token in a match
// pattern with the referenced value's template fragment. An unknown
// reference is a compile-time error.
func substituteValueRefs(pattern string, values map[string]*Value, loc Location) (string, error) {
	var outErr error
	result := dollarRefRe.ReplaceAllStringFunc(pattern, func(tok string) string {
		name := strings.Trim(tok[1:], "{}")
		v, ok := values[name]
		if !ok {
			outErr = &TemplateError{Loc: loc, Msg: "value $" + name + " does not exist in template"}
			return tok
		}
		return v.fragment
	})
	if outErr != nil {
		return "", outErr
	}
	return result, nil
}

func recordOpFromName(name string) recordOp {
	switch name {
	case "Record":
		return opRecord
	case "NoRecord":
		return opNoRecord
	case "Error":
		return opError
	default:
		return opNone
	}
}

func unquoteState(tok string) string {
	if len(tok) >= 2 && strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) {
		return tok[1 : len(tok)-1]
	}
	return tok
}

// matchNames runs re against s and, on a match, returns the
// named capture groups as a map (including empty-string groups that did
// not participate). Returns nil if re does not match s at all.
func matchNames(re *regexp.Regexp, s string) map[string]string {
	sub := re.FindStringSubmatch(s)
	if sub == nil {
		return nil
	}
	out := make(map[string]string, len(sub))
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		out[name] = sub[i]
	}
	return out
}
