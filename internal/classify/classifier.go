package classify

import (
	"strings"

	"github.com/tolu-adebayo/finsight/constants"
	"github.com/tolu-adebayo/finsight/internal/entity"
)

// Keyword sets for the two document families. Scores count distinct
// keyword hits across the sampled text.
var payslipKeywords = []string{
	"payslip",
	"pay slip",
	"gross pay",
	"net pay",
	"paye",
	"national insurance",
	"employee number",
	"tax code",
	"earnings",
	"deductions",
	"year to date",
}

var statementKeywords = []string{
	"statement",
	"account number",
	"sort code",
	"iban",
	"opening balance",
	"closing balance",
	"transactions",
	"portfolio",
	"pension",
	"interest",
	"direct debit",
}

// Classify assigns a document class from page text. The first page carries
// most of the signal, so only the first two pages are sampled. Ties and
// zero-signal documents fall back to statement, the more common upload.
func Classify(pageTexts []string) entity.Classification {
	sample := pageTexts
	if len(sample) > 2 {
		sample = sample[:2]
	}
	text := strings.ToLower(strings.Join(sample, "\n"))

	payslip := countHits(text, payslipKeywords)
	statement := countHits(text, statementKeywords)

	key := constants.ClassStatement
	label := "Bank / Investment / Pension Statement"
	winner, loser := statement, payslip
	if payslip > statement {
		key = constants.ClassPayslip
		label = "Payslip"
		winner, loser = payslip, statement
	}

	confidence := 0.5
	if winner+loser > 0 {
		confidence = float64(winner) / float64(winner+loser)
	}

	return entity.Classification{
		Key:        key,
		Label:      label,
		Confidence: confidence,
		SchemaID:   constants.ClassSchemaIDs[key],
	}
}

func countHits(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
