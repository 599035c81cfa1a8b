package docupipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateResultAcceptsTypicalPayload(t *testing.T) {
	raw := []byte(`{
		"metadata": {"period": "03/2024", "bank": "Acme"},
		"metrics": {"closing_balance": 3241.65},
		"transactions": [{"date": "03/2024", "amount": "-3.20"}],
		"narrative": "ordinary month",
		"provider_extra": {"anything": true}
	}`)
	require.NoError(t, ValidateResult(raw))
}

func TestValidateResultAcceptsSparsePayload(t *testing.T) {
	// sections are optional; only their types are constrained
	require.NoError(t, ValidateResult([]byte(`{}`)))
	require.NoError(t, ValidateResult([]byte(`{"metadata":{}}`)))
}

func TestValidateResultRejectsWrongTypes(t *testing.T) {
	cases := []string{
		`{"transactions": {"not": "an array"}}`,
		`{"metadata": []}`,
		`{"narrative": 42}`,
		`{"metrics": "text"}`,
		`[1,2,3]`,
	}
	for _, raw := range cases {
		assert.Error(t, ValidateResult([]byte(raw)), raw)
	}
}

func TestValidateResultRejectsMalformedJSON(t *testing.T) {
	require.Error(t, ValidateResult([]byte(`{broken`)))
}
