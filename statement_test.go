package dataapi

import (
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatementRewrites(t *testing.T) {
	for _, tc := range []struct {
		query    string
		sql      string
		style    placeholderStyle
		numInput int
		names    []string
	}{
		{"select 1", "select 1", styleNone, 0, nil},
		{"select ? + ?", "select :parameter_0 + :parameter_1", stylePositional, 2, nil},
		{"select $2, $1, $2", "select :parameter_1, :parameter_0, :parameter_1", styleOrdinal, 2, nil},
		{"select :b, :a, :b", "select :b, :a, :b", styleNamed, 0, []string{"b", "a"}},
		{"select '?', \"a?\", `b?` from t where c = ?", "select '?', \"a?\", `b?` from t where c = :parameter_0", stylePositional, 1, nil},
		{"select 'it''s ?' where a = ?", "select 'it''s ?' where a = :parameter_0", stylePositional, 1, nil},
		{`select 'a\'?' where a = ?`, `select 'a\'?' where a = :parameter_0`, stylePositional, 1, nil},
		{"select a::text from t where b = :b", "select a::text from t where b = :b", styleNamed, 0, []string{"b"}},
		{"select 1 -- what?\nwhere a = ?", "select 1 -- what?\nwhere a = :parameter_0", stylePositional, 1, nil},
		{"select /* :nope ? */ :yes", "select /* :nope ? */ :yes", styleNamed, 0, []string{"yes"}},
		{"select '12:30'", "select '12:30'", styleNone, 0, nil},
		{"select $x", "select $x", styleNone, 0, nil},
		{`select * from t where p like 'C:\' and id = $1`, `select * from t where p like 'C:\' and id = :parameter_0`, styleOrdinal, 1, nil},
		{"select $$a ? $1 'b$$, $1", "select $$a ? $1 'b$$, :parameter_0", styleOrdinal, 1, nil},
		{"do $fn$ begin perform :x; end $fn$", "do $fn$ begin perform :x; end $fn$", styleNone, 0, nil},
		{"select $$it's$$ where a = ?", "select $$it's$$ where a = :parameter_0", stylePositional, 1, nil},
		{"select a$b$ from t where c = ?", "select a$b$ from t where c = :parameter_0", stylePositional, 1, nil},
	} {
		st, err := parseStatement(tc.query)
		require.NoError(t, err, tc.query)
		assert.Equal(t, tc.sql, st.sql, tc.query)
		assert.Equal(t, tc.style, st.style, tc.query)
		assert.Equal(t, tc.numInput, st.numInput, tc.query)
		assert.Equal(t, tc.names, st.names, tc.query)
	}
}

func TestParseStatementErrors(t *testing.T) {
	for _, q := range []string{
		"",
		"   ",
		"select ? where a = :a",
		"select $1 where a = ?",
		"select $0",
	} {
		_, err := parseStatement(q)
		assert.ErrorIs(t, err, ErrConfiguration, q)
	}
}

func TestBindOrdinalReuse(t *testing.T) {
	st, err := parseStatement("select $1 where a = $1")
	require.NoError(t, err)
	params, err := st.bind([]driver.NamedValue{{Ordinal: 1, Value: int64(3)}})
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "parameter_0", *params[0].Name)
}

func TestBindNamedReuse(t *testing.T) {
	st, err := parseStatement("select :a where b = :a")
	require.NoError(t, err)
	params, err := st.bind([]driver.NamedValue{{Name: "a", Ordinal: 1, Value: "x"}})
	require.NoError(t, err)
	assert.Len(t, params, 1)
	_, err = st.bind([]driver.NamedValue{
		{Name: "a", Ordinal: 1, Value: "x"},
		{Name: "a", Ordinal: 2, Value: "y"},
	})
	assert.ErrorIs(t, err, ErrConfiguration)
}
