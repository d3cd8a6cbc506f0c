package fsmtemplate

import "regexp"

var stateNamePattern = regexp.MustCompile(`^\w+$`)

// State is a named, ordered collection of rules. Rules are tried
// top-to-bottom against each input line while the template is in this
// state.
type State struct {
	Name  string
	loc   Location
	Rules []*Rule
}

// Location returns the state header's source position.
func (s *State) Location() Location { return s.loc }
