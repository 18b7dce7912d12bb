package sqlname

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseInsensitive_Match(t *testing.T) {
	m := CaseInsensitive()

	assert.True(t, m.Match("EMP", "emp"))
	assert.True(t, m.Match("DeptNo", "deptno"))
	assert.False(t, m.Match("emp", "dept"))
}

func TestCaseInsensitive_UnicodeFolding(t *testing.T) {
	m := CaseInsensitive()

	// German sharp s folds to "ss".
	assert.True(t, m.Match("STRASSE", "straße"))

	// Composed vs decomposed e-acute normalize equal.
	composed := "café"
	decomposed := "café"
	assert.True(t, m.Match(composed, decomposed))
}

func TestCaseSensitive_Match(t *testing.T) {
	m := CaseSensitive()

	assert.True(t, m.Match("emp", "emp"))
	assert.False(t, m.Match("EMP", "emp"))

	// NFC normalization still applies under exact matching.
	assert.True(t, m.Match("café", "café"))
}

func TestCanon_AgreesWithMatch(t *testing.T) {
	m := CaseInsensitive()
	for _, pair := range [][2]string{
		{"EMP", "emp"},
		{"x", "X"},
		{"straße", "STRASSE"},
	} {
		assert.Equal(t, m.Canon(pair[0]), m.Canon(pair[1]))
	}
}
