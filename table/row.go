package table

import (
	"regexp"
	"strings"

	fsm "github.com/coredevice/fsmtemplate"
)

var optionalPrefixRe = regexp.MustCompile(`\[\[(.+?)\]\]`)

// expandOptionalPrefixes implements the `[[...]]` sugar: `[[word]]`
// becomes an optional, letter-by-letter nested group so that any prefix
// of "word" matches, e.g. `[[ow]]` -> `(o(w)?)?`.
func expandOptionalPrefixes(pattern string) string {
	return optionalPrefixRe.ReplaceAllStringFunc(pattern, func(tok string) string {
		word := tok[2 : len(tok)-2]
		return optionalGroup(word)
	})
}

func optionalGroup(word string) string {
	if word == "" {
		return ""
	}
	var b strings.Builder
	b.WriteByte('(')
	for i, r := range word {
		if i > 0 {
			b.WriteByte('(')
		}
		b.WriteRune(r)
	}
	b.WriteString(strings.Repeat(")?", len(word)))
	return b.String()
}

// row is one data row of an index file: a command pattern, a set of
// attribute patterns keyed by header name, and the template path it
// selects. Patterns are compiled anchored at the start of the string,
// mirroring Python's re.match semantics (matches a prefix, not
// necessarily the whole string).
type row struct {
	templatePath string
	commandRe    *regexp.Regexp
	attributes   map[string]*regexp.Regexp
}

func compileAnchored(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + expandOptionalPrefixes(pattern) + ")")
}

func newRow(indexPath string, headers, values []string) (*row, error) {
	if len(headers) != len(values) {
		return nil, &fsm.TableError{Path: indexPath, Msg: "column count mismatch"}
	}

	attrs := make(map[string]string, len(headers))
	for i, h := range headers {
		attrs[h] = values[i]
	}

	tmplPath, ok := attrs["template"]
	if !ok {
		return nil, &fsm.TableError{Path: indexPath, Msg: "row is missing a template column"}
	}
	delete(attrs, "template")

	commandPattern, ok := attrs["command"]
	if !ok {
		return nil, &fsm.TableError{Path: indexPath, Msg: "row is missing a command column"}
	}
	delete(attrs, "command")

	cmdRe, err := compileAnchored(commandPattern)
	if err != nil {
		return nil, &fsm.TableError{Path: indexPath, Msg: "invalid command pattern: " + err.Error()}
	}

	r := &row{
		templatePath: tmplPath,
		commandRe:    cmdRe,
		attributes:   make(map[string]*regexp.Regexp, len(attrs)),
	}
	for attr, pattern := range attrs {
		re, err := compileAnchored(pattern)
		if err != nil {
			return nil, &fsm.TableError{Path: indexPath, Msg: "invalid pattern for attribute " + attr + ": " + err.Error()}
		}
		r.attributes[attr] = re
	}
	return r, nil
}

// match reports whether this row matches command and whether every
// attribute the row declares a pattern for is present in tags and matches
// it; a declared attribute missing from tags fails the row. The template
// column never participates in matching.
func (r *row) match(command string, tags map[string]string) bool {
	if !r.commandRe.MatchString(command) {
		return false
	}
	for attr, re := range r.attributes {
		val, ok := tags[attr]
		if !ok || !re.MatchString(val) {
			return false
		}
	}
	return true
}
