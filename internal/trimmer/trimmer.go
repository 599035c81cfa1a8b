package trimmer

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultMinScore is the keep threshold used when the caller passes 0.
const DefaultMinScore = 5

// statementSignals mark pages that carry statement content. Presence of a
// signal adds 2 to the page score.
var statementSignals = []string{
	"transaction",
	"statement",
	"date",
	"description",
	"amount",
	"balance",
	"debit",
	"credit",
	"opening balance",
	"closing balance",
}

// noiseSignals mark boilerplate pages. Presence subtracts 3.
var noiseSignals = []string{
	"glossary",
	"terms and conditions",
	"privacy",
	"advertis",
	"promotion",
	"marketing",
	"important information",
}

var currencySymbols = []string{"£", "$", "€", "¥"}

const (
	maxCurrencyBonus = 20
	maxNumericBonus  = 10
)

// Result is the trim outcome. KeptPages are zero-based indices in original
// order. Trimmed is nil when every page was kept (the caller should reuse
// the original bytes rather than re-encode).
type Result struct {
	OriginalPageCount int
	KeptPages         []int
	Scores            []int
	PageTexts         []string
	Trimmed           []byte
}

// AllKept reports whether trimming removed nothing.
func (r Result) AllKept() bool {
	return len(r.KeptPages) == r.OriginalPageCount
}

// Trim scores every page of the PDF and rebuilds a document containing only
// the pages worth keeping. Pure function of the input bytes and threshold;
// no side effects.
func Trim(pdfBytes []byte, minScore int) (Result, error) {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	texts, err := extractPageTexts(pdfBytes)
	if err != nil {
		return Result{}, fmt.Errorf("extract page texts: %w", err)
	}

	kept, scores := SelectPages(texts, minScore)
	res := Result{
		OriginalPageCount: len(texts),
		KeptPages:         kept,
		Scores:            scores,
		PageTexts:         texts,
	}
	if res.AllKept() {
		return res, nil
	}

	trimmed, err := rebuild(pdfBytes, kept)
	if err != nil {
		return Result{}, fmt.Errorf("rebuild trimmed pdf: %w", err)
	}
	res.Trimmed = trimmed
	return res, nil
}

// SelectPages applies the scoring heuristic to per-page text. Page 0 is
// always kept (assumed cover/summary page); every other page is kept when
// its score reaches minScore. A multi-page document never reduces to a
// single page: if nothing else qualifies, the highest-scoring non-zero page
// is force-kept.
func SelectPages(texts []string, minScore int) (kept []int, scores []int) {
	scores = make([]int, len(texts))
	for i, t := range texts {
		scores[i] = ScorePage(t)
	}

	kept = []int{0}
	for i := 1; i < len(texts); i++ {
		if scores[i] >= minScore {
			kept = append(kept, i)
		}
	}

	if len(kept) == 1 && len(texts) > 1 {
		best := 1
		for i := 2; i < len(texts); i++ {
			if scores[i] > scores[best] {
				best = i
			}
		}
		kept = append(kept, best)
	}
	return kept, scores
}

// ScorePage computes the keep score for one page of text.
func ScorePage(text string) int {
	lower := strings.ToLower(text)

	score := 0
	for _, sig := range statementSignals {
		if strings.Contains(lower, sig) {
			score += 2
		}
	}
	for _, sig := range noiseSignals {
		if strings.Contains(lower, sig) {
			score -= 3
		}
	}

	currency := 0
	for _, sym := range currencySymbols {
		currency += strings.Count(text, sym)
	}
	if currency > maxCurrencyBonus {
		currency = maxCurrencyBonus
	}
	score += currency

	numeric := 0
	for _, tok := range strings.Fields(text) {
		if strings.ContainsAny(tok, "0123456789") {
			numeric++
		}
	}
	numeric /= 2
	if numeric > maxNumericBonus {
		numeric = maxNumericBonus
	}
	score += numeric

	return score
}

func extractPageTexts(pdfBytes []byte) ([]string, error) {
	if len(pdfBytes) == 0 {
		return nil, fmt.Errorf("empty PDF content")
	}
	r, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	texts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// unreadable pages score as empty rather than aborting the trim
			texts = append(texts, "")
			continue
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}
	return texts, nil
}

// rebuild produces a PDF containing only the kept pages, in original order.
func rebuild(pdfBytes []byte, kept []int) ([]byte, error) {
	selected := make([]string, 0, len(kept))
	for _, idx := range kept {
		selected = append(selected, strconv.Itoa(idx+1)) // pdfcpu pages are 1-based
	}
	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(pdfBytes), &out, selected, nil); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
