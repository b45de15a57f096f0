package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cswinter/locustdb-go/errs"
)

func TestCompileRegexPattern_ValidPatternCompiles(t *testing.T) {
	re, err := CompileRegexPattern("^foo.*bar$")
	require.NoError(t, err)
	require.True(t, re.MatchString("foobazbar"))
	require.False(t, re.MatchString("nope"))
}

func TestCompileRegexPattern_InvalidPatternReturnsParseRegexError(t *testing.T) {
	_, err := CompileRegexPattern("(unterminated")
	require.Error(t, err)

	var perr *errs.Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, errs.ParseRegex, perr.Kind)
}
