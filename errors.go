package fsmtemplate

import "fmt"

// Location pinpoints a place in a template source, used to annotate every
// compile-time and runtime error with where it came from.
type Location struct {
	Path string
	Line int
}

func (l Location) String() string {
	if l.Path == "" && l.Line == 0 {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", l.Path, l.Line)
}

// TemplateNotFoundError is returned when a template file does not exist,
// or when a Table has no row matching the supplied command and tags.
type TemplateNotFoundError struct {
	Path string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.Path)
}

// TemplateError reports a malformed template: duplicate value or state
// names, a missing Start state, an invalid regex, or an unknown $value
// reference inside a rule's match pattern.
type TemplateError struct {
	Loc Location
	Msg string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error at %s: %s", e.Loc, e.Msg)
}

// ParseError reports a malformed value declaration or an unknown or
// duplicate option attached to a value. It is a TemplateError so callers
// that only check for TemplateError still catch it.
type ParseError struct {
	Loc Location
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Loc, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return &TemplateError{Loc: e.Loc, Msg: e.Msg}
}

// TableError reports a malformed index file: a missing index, a
// malformed header row, a row whose column count does not match the
// header, or a lookup that references an attribute the header never
// declared.
type TableError struct {
	Path string
	Msg  string
}

func (e *TableError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("table error: %s", e.Msg)
	}
	return fmt.Sprintf("table error in %s: %s", e.Path, e.Msg)
}

// FSMError is raised by an Error rule operation during Parse. It carries
// the offending rule's source location and the rule's optional message.
type FSMError struct {
	Loc Location
	Msg string
}

func (e *FSMError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("state error raised at %s", e.Loc)
	}
	return fmt.Sprintf("error: %s (rule at %s)", e.Msg, e.Loc)
}
