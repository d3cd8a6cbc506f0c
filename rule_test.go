package fsmtemplate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func valuesByName(names ...string) map[string]*Value {
	out := map[string]*Value{}
	for _, n := range names {
		v, err := parseValueLine("Value "+n+" (\\S+)", Location{})
		if err != nil {
			panic(err)
		}
		out[n] = v
	}
	return out
}

func TestParseRuleLineActionGrammar(t *testing.T) {
	vals := valuesByName("NAME")

	t.Run("match only, no action", func(t *testing.T) {
		r := require.New(t)
		rule, err := parseRuleLine("  ^${NAME}", Location{}, vals)
		r.NoError(err)
		r.Equal(lineNext, rule.lineOp)
		r.Equal(opNone, rule.recordOp)
		r.Empty(rule.newState)
	})

	t.Run("record operation only", func(t *testing.T) {
		r := require.New(t)
		rule, err := parseRuleLine("  ^${NAME} -> Record", Location{}, vals)
		r.NoError(err)
		r.Equal(opRecord, rule.recordOp)
		r.Empty(rule.newState)
	})

	t.Run("record operation plus new state", func(t *testing.T) {
		r := require.New(t)
		vals2 := valuesByName("NAME")
		rule, err := parseRuleLine("  ^${NAME} -> Record Next_State", Location{}, vals2)
		r.NoError(err)
		r.Equal(opRecord, rule.recordOp)
		r.Equal("Next_State", rule.newState)
	})

	t.Run("Error takes a message, not a state", func(t *testing.T) {
		r := require.New(t)
		rule, err := parseRuleLine(`  ^${NAME} -> Error "boom"`, Location{}, vals)
		r.NoError(err)
		r.Equal(opError, rule.recordOp)
		r.Equal("boom", rule.errorMessage)
		r.Empty(rule.newState)
	})

	t.Run("line op with record op and state", func(t *testing.T) {
		r := require.New(t)
		rule, err := parseRuleLine("  ^${NAME} -> Continue.Record Somewhere", Location{}, vals)
		r.NoError(err)
		r.Equal(lineContinue, rule.lineOp)
		r.Equal(opRecord, rule.recordOp)
		r.Equal("Somewhere", rule.newState)
	})

	t.Run("state change only", func(t *testing.T) {
		r := require.New(t)
		rule, err := parseRuleLine("  ^${NAME} -> Somewhere", Location{}, vals)
		r.NoError(err)
		r.Equal(opNone, rule.recordOp)
		r.Equal("Somewhere", rule.newState)
	})

	t.Run("quoted state name is unquoted", func(t *testing.T) {
		r := require.New(t)
		rule, err := parseRuleLine(`  ^${NAME} -> "Has Space"`, Location{}, vals)
		r.NoError(err)
		r.Equal("Has Space", rule.newState)
	})

	t.Run("unknown value reference is a compile error", func(t *testing.T) {
		r := require.New(t)
		_, err := parseRuleLine("  ^${BOGUS}", Location{}, vals)
		r.Error(err)
		var terr *TemplateError
		r.ErrorAs(err, &terr)
	})

	t.Run("empty rule is a compile error", func(t *testing.T) {
		r := require.New(t)
		_, err := parseRuleLine("  ^", Location{}, vals)
		r.Error(err)
	})
}

func TestLineOpBreaksCurrentState(t *testing.T) {
	r := require.New(t)
	r.True(lineNext.breaksCurrentState())
	r.False(lineContinue.breaksCurrentState())
}
