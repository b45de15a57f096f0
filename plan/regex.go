package plan

import (
	"fmt"
	"regexp"

	"github.com/cswinter/locustdb-go/errs"
)

// CompileRegexPattern validates and compiles a regex literal at plan
// time, so an invalid pattern is reported as a plan-time error rather
// than surfacing only when the operator first executes.
func CompileRegexPattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errs.New(errs.ParseRegex, "CompileRegexPattern", fmt.Errorf("%w: %s: %v", errs.ErrRegexCompile, pattern, err))
	}

	return re, nil
}
