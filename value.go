package fsmtemplate

import (
	"regexp"
	"strconv"
	"strings"
)

// Value is a declared named capture slot: a regex fragment plus the
// options that govern how its captures interact with record emission.
type Value struct {
	name     string
	loc      Location
	regexSrc string

	// compiledRegex is the value's regex as-written, compiled standalone.
	// It is used by List to re-destructure a captured compound fragment.
	compiledRegex *regexp.Regexp

	// fragment is the value's regex with a leading '(' rewritten to
	// '(?P<name>', used when substituting $name into a rule's match
	// pattern.
	fragment string

	options []option

	// current mirrors the original implementation's single mutable
	// capture cell: a string immediately after a regex match, possibly
	// replaced with a []any (of strings and/or OrderedMaps) by List.save, or nil once
	// cleared. It is exactly what becomes this value's record cell.
	current any
}

// Name returns the value's declared name.
func (v *Value) Name() string { return v.name }

// IsKey reports whether this value carries the Key option, the marker
// reserved for downstream record deduplication.
func (v *Value) IsKey() bool {
	for _, o := range v.options {
		if _, ok := o.(*keyOption); ok {
			return true
		}
	}
	return false
}

func parseValueLine(line string, loc Location) (*Value, error) {
	tokens := strings.Split(line, " ")
	if len(tokens) < 3 {
		return nil, &ParseError{Loc: loc, Msg: "value line does not have at least 3 tokens"}
	}

	v := &Value{loc: loc}

	var optionTokens []string
	if strings.HasPrefix(tokens[2], "(") {
		v.name = tokens[1]
		v.regexSrc = strings.Join(tokens[2:], " ")
	} else {
		optionTokens = strings.Split(tokens[1], ",")
		v.name = tokens[2]
		v.regexSrc = strings.Join(tokens[3:], " ")
	}

	for _, tok := range optionTokens {
		opt, err := parseOption(tok, v, loc)
		if err != nil {
			return nil, err
		}
		v.options = append(v.options, opt)
	}

	linkListFilldown(v.options)

	for _, o := range v.options {
		o.create()
	}

	re, err := regexp.Compile(v.regexSrc)
	if err != nil {
		return nil, &ParseError{Loc: loc, Msg: "invalid regex: " + err.Error()}
	}
	v.compiledRegex = re

	if strings.HasPrefix(v.regexSrc, "(") {
		v.fragment = "(?P<" + v.name + ">" + v.regexSrc[1:]
	} else {
		v.fragment = v.regexSrc
	}

	return v, nil
}

// linkListFilldown wires the List/Filldown interaction: a List value's
// accumulator survives clear() when the same value also carries
// Filldown.
func linkListFilldown(options []option) {
	hasFilldown := false
	for _, o := range options {
		if _, ok := o.(*filldownOption); ok {
			hasFilldown = true
			break
		}
	}
	if !hasFilldown {
		return
	}
	for _, o := range options {
		if lo, ok := o.(*listOption); ok {
			lo.persistAcrossClear = true
		}
	}
}

func parseOption(tok string, v *Value, loc Location) (option, error) {
	m := optionNamePattern.FindStringSubmatch(tok)
	if m == nil {
		return nil, &ParseError{Loc: loc, Msg: "invalid option: " + strconv.Quote(tok)}
	}
	name, param := m[1], m[2]
	for _, existing := range v.options {
		if existing.optionName() == name {
			return nil, &ParseError{Loc: loc, Msg: "duplicate option: " + name}
		}
	}
	return optionRegistry[name](param), nil
}

// SetCurrent writes a newly captured string into the value's current
// cell and fires every attached option's assign hook, in declaration
// order.
func (v *Value) SetCurrent(s string, view ResultsView, col int) {
	v.current = s
	for _, o := range v.options {
		o.assign(v, view, col)
	}
}

// Save runs every option's save hook in declaration order and reports
// whether the record should be skipped. A Required option (or any
// future skip-capable option) dominates: once skip is signaled, later
// options still run so their bookkeeping stays consistent, but the
// overall outcome stays skip.
func (v *Value) Save() saveOutcome {
	outcome := outcomeKeep
	for _, o := range v.options {
		if o.save(v) == outcomeSkip {
			outcome = outcomeSkip
		}
	}
	return outcome
}

// Clear resets current to nil and runs every option's clear hook,
// called after a record has been (or would have been) emitted.
func (v *Value) Clear() {
	v.current = nil
	for _, o := range v.options {
		o.clear(v)
	}
}

// ClearAll runs every option's clearAll hook. It is not invoked during
// normal Parse flow (see Template.Reset); it exists only for an
// explicit, caller-initiated full reset.
func (v *Value) ClearAll() {
	v.current = nil
	for _, o := range v.options {
		o.clearAll()
	}
}

// reset returns the value to its post-create state. Template.Parse runs
// this at the start of every call, re-running create() rather than
// clearAll(), since clearAll is reserved for an explicit caller-invoked
// reset outside normal parse flow.
func (v *Value) reset() {
	v.current = nil
	for _, o := range v.options {
		o.create()
	}
}
