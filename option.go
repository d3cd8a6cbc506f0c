package fsmtemplate

import "regexp"

// saveOutcome is the explicit result of running a value's save hooks,
// replacing the original implementation's SkipRecord exception with a
// plain return value. Skip dominates when multiple options disagree.
type saveOutcome int

const (
	outcomeKeep saveOutcome = iota
	outcomeSkip
)

// ResultsView is the narrow handle a Fillup option is given to reach
// back into a template's accumulated rows. It is passed fresh on every
// assign call rather than retained, so options never hold a pointer to
// their owning template.
type ResultsView interface {
	NumRows() int
	CellAt(row, col int) any
	SetCellAt(row, col int, v any)
}

// option is the behavior attached to a Value. Key, Required, List,
// Fillup, and Filldown are the only implementations; this is a closed
// set dispatched by name at compile time, not an open plugin registry.
type option interface {
	optionName() string
	create()
	assign(v *Value, view ResultsView, col int)
	save(v *Value) saveOutcome
	clear(v *Value)
	clearAll()
}

// optionRegistry maps a declared option name to its constructor. Building
// this as a static map (rather than relying on subclass-registration side
// effects, as the source does) keeps the set closed and the alternation
// regex used to recognize option names a compile-time constant.
var optionRegistry = map[string]func(param string) option{
	"Key":      func(string) option { return &keyOption{} },
	"Required": func(string) option { return &requiredOption{} },
	"List":     func(string) option { return &listOption{} },
	"Fillup":   func(string) option { return &fillupOption{} },
	"Filldown": func(string) option { return &filldownOption{} },
}

// optionNamePattern recognizes any registered option name, used to parse
// a single `Value` option token (an option name with an optional
// `[param]` suffix).
var optionNamePattern = regexp.MustCompile(`^(Key|Required|List|Fillup|Filldown)(?:\[(.*)\])?$`)

// keyOption marks a value for downstream deduplication; it has no
// lifecycle behavior of its own.
type keyOption struct{}

func (o *keyOption) optionName() string                   { return "Key" }
func (o *keyOption) create()                              {}
func (o *keyOption) assign(*Value, ResultsView, int)      {}
func (o *keyOption) save(*Value) saveOutcome              { return outcomeKeep }
func (o *keyOption) clear(*Value)                         {}
func (o *keyOption) clearAll()                            {}

// requiredOption skips the in-progress record if the value was never
// captured before Record fires.
type requiredOption struct{}

func (o *requiredOption) optionName() string { return "Required" }
func (o *requiredOption) create()            {}
func (o *requiredOption) assign(*Value, ResultsView, int) {}

func (o *requiredOption) save(v *Value) saveOutcome {
	if v.current == nil {
		v.Clear()
		return outcomeSkip
	}
	return outcomeKeep
}

func (o *requiredOption) clear(*Value) {}
func (o *requiredOption) clearAll()    {}

// listOption accumulates every captured value between record emissions
// into an ordered slice, which becomes the record's cell for this column.
type listOption struct {
	items []any
	// persistAcrossClear mirrors the original's special case: a List
	// paired with a Filldown on the same value keeps accumulating across
	// records instead of resetting on clear.
	persistAcrossClear bool
}

func (o *listOption) optionName() string { return "List" }

func (o *listOption) create() {
	o.items = nil
}

func (o *listOption) assign(v *Value, _ ResultsView, _ int) {
	captured, _ := v.current.(string)
	if v.compiledRegex != nil && v.compiledRegex.NumSubexp() > 1 {
		if m := matchNamedGroups(v.compiledRegex, captured); m != nil {
			o.items = append(o.items, m)
			return
		}
	}
	o.items = append(o.items, captured)
}

func (o *listOption) save(v *Value) saveOutcome {
	cp := make([]any, len(o.items))
	copy(cp, o.items)
	v.current = cp
	return outcomeKeep
}

func (o *listOption) clear(*Value) {
	if !o.persistAcrossClear {
		o.items = nil
	}
}

func (o *listOption) clearAll() {
	o.items = nil
}

// fillupOption back-fills already-emitted records in its column, walking
// from the newest row backward until it reaches one that is already
// non-null.
type fillupOption struct{}

func (o *fillupOption) optionName() string { return "Fillup" }
func (o *fillupOption) create()            {}

func (o *fillupOption) assign(v *Value, view ResultsView, col int) {
	if v.current == nil || view == nil {
		return
	}
	for row := view.NumRows() - 1; row >= 0; row-- {
		if view.CellAt(row, col) != nil {
			break
		}
		view.SetCellAt(row, col, v.current)
	}
}

func (o *fillupOption) save(*Value) saveOutcome { return outcomeKeep }
func (o *fillupOption) clear(*Value)            {}
func (o *fillupOption) clearAll()               {}

// filldownOption carries the last captured value forward across record
// boundaries, re-seeding the value's current cell every time it is
// cleared after a commit.
type filldownOption struct {
	held any
}

func (o *filldownOption) optionName() string { return "Filldown" }

func (o *filldownOption) create() {
	o.held = nil
}

func (o *filldownOption) assign(v *Value, _ ResultsView, _ int) {
	o.held = v.current
}

func (o *filldownOption) save(*Value) saveOutcome { return outcomeKeep }

func (o *filldownOption) clear(v *Value) {
	v.current = o.held
}

func (o *filldownOption) clearAll() {
	o.held = nil
}

// matchNamedGroups re-matches a captured string against the value's own
// regex and, if it carries named groups, returns them as an ordered map.
// Used by List when a value's regex captures a compound fragment that
// itself should be destructured rather than stored verbatim.
//
// The match must start at position 0: s is the exact substring the
// value's regex already captured, so a match starting anywhere else
// would mean a different, wrong portion of it got destructured.
func matchNamedGroups(re *regexp.Regexp, s string) OrderedMap {
	loc := re.FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 {
		return nil
	}
	var out OrderedMap
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			continue
		}
		out = append(out, KV{Key: name, Value: s[start:end]})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
