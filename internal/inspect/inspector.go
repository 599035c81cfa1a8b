package inspect

import (
	"strings"

	"github.com/tolu-adebayo/finsight/constants"
)

// LabelPeriodDate is the human-readable label used when the statement
// period cannot be found in an extracted payload.
const LabelPeriodDate = "Period Date (MM/YYYY)"

// Prioritized JSON paths searched for the period value, per document class.
var statementPeriodPaths = [][]string{
	{"period"},
	{"statement", "period"},
	{"metadata", "period"},
	{"metadata", "statement_period"},
}

var payslipPeriodPaths = [][]string{
	{"period"},
	{"pay_period"},
	{"metadata", "period"},
	{"metadata", "pay_period"},
}

// MissingFields determines which mandatory fields are absent from an
// extracted payload. Both document classes require a recognizable MM/YYYY
// period somewhere under a prioritized path, falling back to a full-tree
// scan of period-named keys. An empty result means the job may complete.
func MissingFields(classKey string, v *Value) []string {
	paths := payslipPeriodPaths
	if constants.IsStatementClass(classKey) {
		paths = statementPeriodPaths
	}
	if hasPeriod(v, paths) {
		return nil
	}
	return []string{LabelPeriodDate}
}

func hasPeriod(v *Value, paths [][]string) bool {
	for _, path := range paths {
		if sub, ok := v.Get(path...); ok && subtreeHasMonthYear(sub) {
			return true
		}
	}

	// fall back to scanning the whole tree for period-named keys
	found := false
	v.walkMembers(func(key string, member *Value) {
		if found {
			return
		}
		if strings.Contains(strings.ToLower(key), "period") && subtreeHasMonthYear(member) {
			found = true
		}
	})
	return found
}

// subtreeHasMonthYear reports whether any string in the subtree carries an
// MM/YYYY token.
func subtreeHasMonthYear(v *Value) bool {
	return v.walkStrings(ContainsMonthYear)
}

// NormalizeDates rewrites every object member literally named "date"
// (case-insensitive) from its best-effort parsed form into canonical
// MM/YYYY. Unparseable values are left untouched. Returns the number of
// rewritten members.
func NormalizeDates(v *Value) int {
	rewritten := 0
	v.walkMembers(func(key string, member *Value) {
		if !strings.EqualFold(key, "date") {
			return
		}
		s, ok := member.StringValue()
		if !ok {
			return
		}
		if canonical, ok := CanonicalMonthYear(s); ok && canonical != s {
			member.str = canonical
			rewritten++
		}
	})
	return rewritten
}
