package fsmtemplate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeResultsView is a minimal in-memory ResultsView used to exercise
// Fillup without needing a full Template.
type fakeResultsView struct {
	rows [][]any
}

func (f *fakeResultsView) NumRows() int                  { return len(f.rows) }
func (f *fakeResultsView) CellAt(row, col int) any       { return f.rows[row][col] }
func (f *fakeResultsView) SetCellAt(row, col int, v any) { f.rows[row][col] = v }

func TestRequiredOptionSkipsOnNullCurrent(t *testing.T) {
	r := require.New(t)

	v := &Value{options: []option{&requiredOption{}}}
	outcome := v.Save()
	r.Equal(outcomeSkip, outcome)
	r.Nil(v.current)
}

func TestRequiredOptionKeepsOnCapturedValue(t *testing.T) {
	r := require.New(t)

	v := &Value{current: "alice", options: []option{&requiredOption{}}}
	r.Equal(outcomeKeep, v.Save())
}

func TestListOptionAccumulatesRawStrings(t *testing.T) {
	r := require.New(t)

	lo := &listOption{}
	lo.create()
	v := &Value{options: []option{lo}}

	v.SetCurrent("a", nil, 0)
	v.SetCurrent("b", nil, 0)

	outcome := v.Save()
	r.Equal(outcomeKeep, outcome)
	r.Equal([]any{"a", "b"}, v.current)
}

func TestListOptionDestructuresMultiGroupRegex(t *testing.T) {
	r := require.New(t)

	// The outer parenthesis is the plain, unnamed group template_fragment
	// rewrites into (?P<PAIR>...); the inner named groups are what
	// List's own re-match destructures into an OrderedMap.
	v, err := parseValueLine("Value List PAIR ((?P<KEY>\\S+)=(?P<VAL>\\S+))", Location{Line: 1})
	r.NoError(err)

	v.SetCurrent("k1=v1", nil, 0)
	v.SetCurrent("k2=v2", nil, 0)
	v.Save()

	items, ok := v.current.([]any)
	r.True(ok)
	r.Len(items, 2)

	om, ok := items[0].(OrderedMap)
	r.True(ok)
	key, _ := om.Get("KEY")
	val, _ := om.Get("VAL")
	r.Equal("k1", key)
	r.Equal("v1", val)
}

func TestListOptionClearResetsUnlessFilldownAttached(t *testing.T) {
	r := require.New(t)

	lo := &listOption{}
	lo.create()
	v := &Value{options: []option{lo}}
	v.SetCurrent("a", nil, 0)
	v.Clear()
	r.Empty(lo.items)

	lo2 := &listOption{persistAcrossClear: true}
	lo2.create()
	v2 := &Value{options: []option{lo2}}
	v2.SetCurrent("a", nil, 0)
	v2.Clear()
	r.Len(lo2.items, 1)
}

func TestFilldownCarriesLastValueAcrossClear(t *testing.T) {
	r := require.New(t)

	fd := &filldownOption{}
	fd.create()
	v := &Value{options: []option{fd}}

	v.SetCurrent("h1", nil, 0)
	v.Clear()
	r.Equal("h1", v.current)

	// a later line with no capture should still leave the filled-down
	// value intact after the next clear.
	v.Clear()
	r.Equal("h1", v.current)
}

func TestFillupBackfillsPriorRecordsUntilNonNull(t *testing.T) {
	r := require.New(t)

	view := &fakeResultsView{rows: [][]any{
		{"already"},
		{nil},
		{nil},
	}}

	fu := &fillupOption{}
	v := &Value{current: "admin", options: []option{fu}}
	fu.assign(v, view, 0)

	r.Equal("already", view.rows[0][0])
	r.Equal("admin", view.rows[1][0])
	r.Equal("admin", view.rows[2][0])
}

func TestKeyOptionHasNoLifecycleEffect(t *testing.T) {
	r := require.New(t)

	v, err := parseValueLine("Value Key ID (\\d+)", Location{Line: 1})
	r.NoError(err)
	r.True(v.IsKey())

	v.SetCurrent("1", nil, 0)
	r.Equal(outcomeKeep, v.Save())
	v.Clear()
	r.Nil(v.current)
}
