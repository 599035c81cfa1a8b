package constants

import "strings"

// Document class keys assigned by the classifier before dispatch.
// Stable values (stored on the job and used to pick the provider schema).
const (
	ClassPayslip   = "payslip"
	ClassStatement = "statement"
)

// Provider schema identifiers per document class.
var ClassSchemaIDs = map[string]string{
	ClassPayslip:   "payslip-v1",
	ClassStatement: "statement-v1",
}

// IsStatementClass reports whether a classification key denotes a
// statement-family document (bank, investment or pension statement).
// Anything that is not a statement is treated as a payslip.
func IsStatementClass(key string) bool {
	return strings.Contains(strings.ToLower(key), "statement")
}

// AllowedExtensions holds the accepted upload extensions. The pipeline is
// PDF-only; images go through a different path upstream.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// AllowedExt checks if a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
