package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tolu-adebayo/finsight/constants"
)

func TestClassifyPayslip(t *testing.T) {
	pages := []string{
		"PAYSLIP\nEmployee Number 1042\nTax Code 1257L\nGross Pay 3,200.00\nNet Pay 2,480.16\nPAYE 410.20\nNational Insurance 309.64",
	}
	cls := Classify(pages)
	assert.Equal(t, constants.ClassPayslip, cls.Key)
	assert.Equal(t, constants.ClassSchemaIDs[constants.ClassPayslip], cls.SchemaID)
	assert.Greater(t, cls.Confidence, 0.5)
}

func TestClassifyStatement(t *testing.T) {
	pages := []string{
		"Bank Statement\nAccount Number 00112233 Sort Code 11-22-33\nOpening Balance 1,250.00 Closing Balance 3,241.65\nTransactions\nDirect Debit ACME ENERGY",
	}
	cls := Classify(pages)
	assert.Equal(t, constants.ClassStatement, cls.Key)
	assert.Equal(t, constants.ClassSchemaIDs[constants.ClassStatement], cls.SchemaID)
	assert.Greater(t, cls.Confidence, 0.5)
}

func TestClassifyZeroSignalDefaultsToStatement(t *testing.T) {
	cls := Classify([]string{"lorem ipsum dolor sit amet"})
	assert.Equal(t, constants.ClassStatement, cls.Key)
	assert.Equal(t, 0.5, cls.Confidence)
}

func TestClassifySamplesFirstTwoPagesOnly(t *testing.T) {
	pages := []string{
		"Bank Statement\nAccount Number 00112233\nOpening Balance\nClosing Balance\nTransactions",
		"Direct Debit entries and interest",
		"PAYSLIP gross pay net pay paye national insurance tax code earnings deductions year to date employee number",
	}
	cls := Classify(pages)
	assert.Equal(t, constants.ClassStatement, cls.Key, "payslip keywords on page 3 must not flip the class")
}

func TestClassifyEmpty(t *testing.T) {
	cls := Classify(nil)
	assert.Equal(t, constants.ClassStatement, cls.Key)
	assert.Equal(t, 0.5, cls.Confidence)
}
