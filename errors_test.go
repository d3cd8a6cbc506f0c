package fsmtemplate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocationString(t *testing.T) {
	r := require.New(t)

	r.Equal("<unknown>", Location{}.String())
	r.Equal("tmpl.fsm:12", Location{Path: "tmpl.fsm", Line: 12}.String())
}

func TestParseErrorUnwrapsToTemplateError(t *testing.T) {
	r := require.New(t)

	perr := &ParseError{Loc: Location{Line: 3}, Msg: "bad option"}

	var terr *TemplateError
	r.True(errors.As(perr, &terr))
	r.Equal("bad option", terr.Msg)
}

func TestFSMErrorMessage(t *testing.T) {
	r := require.New(t)

	e := &FSMError{Loc: Location{Path: "t.fsm", Line: 5}, Msg: "boom"}
	r.Contains(e.Error(), "boom")
	r.Contains(e.Error(), "t.fsm:5")

	bare := &FSMError{Loc: Location{Path: "t.fsm", Line: 5}}
	r.Contains(bare.Error(), "t.fsm:5")
}

func TestTableErrorWithAndWithoutPath(t *testing.T) {
	r := require.New(t)

	withPath := &TableError{Path: "index.csv", Msg: "bad header"}
	r.Contains(withPath.Error(), "index.csv")

	withoutPath := &TableError{Msg: "bad header"}
	r.NotContains(withoutPath.Error(), "in ")
}
