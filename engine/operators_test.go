package engine

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/alertflow/errors"
)

func TestCompareOperators(t *testing.T) {
	tests := []struct {
		name string
		op   string
		a, b any
		want bool
	}{
		{"greater true", OpGreaterThan, 30.0, 20.0, true},
		{"greater false on equal", OpGreaterThan, 20.0, 20.0, false},
		{"greater equal on equal", OpGreaterEqual, 20.0, 20.0, true},
		{"less true", OpLessThan, 18.0, 20.0, true},
		{"less equal true", OpLessEqual, 20.0, 20.0, true},
		{"mixed numeric types", OpGreaterThan, 30, 20.5, true},
		{"int64 reading", OpLessThan, int64(5), 10.0, true},
		{"equals numbers", OpEquals, 20.0, 20, true},
		{"equals strings", OpEquals, "warn", "warn", true},
		{"not equals", OpNotEquals, "warn", "crit", true},
		{"equals cross type falls back to string", OpEquals, "20", 20.0, true},
		{"contains", OpContains, "sensor offline", "offline", true},
		{"contains miss", OpContains, "sensor offline", "online ", false},
		{"not contains", OpNotContains, "all good", "offline", true},
		{"contains renders numbers", OpContains, 404.5, "404", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.op, tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareTypeMismatchOrdering(t *testing.T) {
	tests := []struct {
		name string
		a, b any
	}{
		{"string left", "hot", 20.0},
		{"string right", 20.0, "cold"},
		{"nil operand", nil, 20.0},
		{"bool operand", true, 20.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compare(OpGreaterThan, tt.a, tt.b)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrTypeMismatch))
		})
	}
}

func TestCompareUnknownOperator(t *testing.T) {
	_, err := Compare("~=", 1, 2)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnknownOperator))
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"true", true, true},
		{"false", false, false},
		{"nonzero number", 3.5, true},
		{"zero number", 0.0, false},
		{"nonempty string", "x", true},
		{"empty string", "", false},
		{"nil", nil, false},
		{"map value", map[string]any{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truthy(tt.v))
		})
	}
}
