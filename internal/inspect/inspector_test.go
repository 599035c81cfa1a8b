package inspect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolu-adebayo/finsight/constants"
)

func mustParse(t *testing.T, raw string) *Value {
	t.Helper()
	v, err := Parse([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestMissingFieldsStatementWithPeriod(t *testing.T) {
	v := mustParse(t, `{"period":"03/2024","transactions":[]}`)
	assert.Empty(t, MissingFields(constants.ClassStatement, v))
}

func TestMissingFieldsStatementNestedPaths(t *testing.T) {
	for _, raw := range []string{
		`{"statement":{"period":"03/2024"}}`,
		`{"metadata":{"period":"03/2024"}}`,
		`{"metadata":{"statement_period":"Statement for 03/2024"}}`,
	} {
		v := mustParse(t, raw)
		assert.Empty(t, MissingFields(constants.ClassStatement, v), raw)
	}
}

func TestMissingFieldsPayslipPaths(t *testing.T) {
	for _, raw := range []string{
		`{"period":"04/2024"}`,
		`{"pay_period":"04/2024"}`,
		`{"metadata":{"pay_period":"04/2024"}}`,
	} {
		v := mustParse(t, raw)
		assert.Empty(t, MissingFields(constants.ClassPayslip, v), raw)
	}
}

func TestMissingFieldsFullTreeFallback(t *testing.T) {
	// period lives under a non-prioritized key; the full-tree scan of
	// period-named members must still find it
	v := mustParse(t, `{"summary":{"reporting_period":"11/2023"}}`)
	assert.Empty(t, MissingFields(constants.ClassStatement, v))
}

func TestMissingFieldsAbsentPeriod(t *testing.T) {
	v := mustParse(t, `{"metadata":{"bank":"Acme"},"transactions":[{"date":"01/03/2024"}]}`)
	missing := MissingFields(constants.ClassStatement, v)
	require.Equal(t, []string{LabelPeriodDate}, missing)
}

func TestMissingFieldsPeriodNotMonthYear(t *testing.T) {
	// a period key whose value never canonicalizes still counts as missing
	v := mustParse(t, `{"period":"Q1 2024"}`)
	assert.Equal(t, []string{LabelPeriodDate}, MissingFields(constants.ClassStatement, v))
}

func TestNormalizeDatesRewritesDateMembers(t *testing.T) {
	v := mustParse(t, `{"transactions":[{"date":"2024-03-01","description":"coffee"},{"Date":"15/03/2024"},{"date":"unknown"}],"metadata":{"date":"March 2024","issued":"2024-03-20"}}`)

	n := NormalizeDates(v)
	assert.Equal(t, 3, n)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `{"date":"03/2024","description":"coffee"}`)
	assert.Contains(t, s, `{"Date":"03/2024"}`, "date matching is case-insensitive")
	assert.Contains(t, s, `{"date":"unknown"}`, "unparseable values stay untouched")
	assert.Contains(t, s, `"issued":"2024-03-20"`, "only members named date are rewritten")
}

func TestNormalizeDatesAlreadyCanonical(t *testing.T) {
	v := mustParse(t, `{"date":"03/2024"}`)
	assert.Equal(t, 0, NormalizeDates(v), "canonical values do not count as rewrites")
}

func TestNormalizeUnlocksPeriodDetection(t *testing.T) {
	// a period object carrying an ISO date under a Date member: after
	// normalization the period is recognizable and nothing is missing
	v := mustParse(t, `{"period":{"Date":"2024-05-25"}}`)
	require.Equal(t, []string{LabelPeriodDate}, MissingFields(constants.ClassPayslip, v))

	require.Equal(t, 1, NormalizeDates(v))
	sub, ok := v.Get("period", "Date")
	require.True(t, ok)
	s, _ := sub.StringValue()
	assert.Equal(t, "05/2024", s)
	assert.Empty(t, MissingFields(constants.ClassPayslip, v))
}

func TestNormalizeThenInspect(t *testing.T) {
	// the completion path: normalize first, then check required fields
	v := mustParse(t, `{"metadata":{"period":"2024-03-15"},"transactions":[]}`)
	require.Equal(t, []string{LabelPeriodDate}, MissingFields(constants.ClassStatement, v),
		"pre-normalization the ISO period is not recognized")

	// period members are not named "date", so NormalizeDates leaves them;
	// manual entry supplies the canonical form instead
	NormalizeDates(v)
	assert.Equal(t, []string{LabelPeriodDate}, MissingFields(constants.ClassStatement, v))
}
