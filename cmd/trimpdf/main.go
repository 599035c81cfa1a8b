package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/tolu-adebayo/finsight/internal/classify"
	"github.com/tolu-adebayo/finsight/internal/trimmer"
)

// trimpdf runs the page trimmer against a local PDF and reports per-page
// scores. Useful for tuning TRIM_MIN_SCORE against real documents.
func main() {
	minScore := flag.Int("min-score", trimmer.DefaultMinScore, "minimum page score to keep a page")
	out := flag.String("out", "", "write the trimmed PDF to this path (optional)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: trimpdf [flags] <file.pdf>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read pdf", "path", path, "error", err)
		os.Exit(1)
	}

	res, err := trimmer.Trim(data, *minScore)
	if err != nil {
		logger.Error("trim failed", "path", path, "error", err)
		os.Exit(1)
	}

	cls := classify.Classify(res.PageTexts)
	logger.Info("document classified",
		"class", cls.Key,
		"label", cls.Label,
		"confidence", fmt.Sprintf("%.2f", cls.Confidence),
	)

	keptSet := make(map[int]bool, len(res.KeptPages))
	for _, p := range res.KeptPages {
		keptSet[p] = true
	}
	for i, score := range res.Scores {
		logger.Info("page scored", "page", i, "score", score, "kept", keptSet[i])
	}
	logger.Info("trim summary",
		"pages", res.OriginalPageCount,
		"kept", len(res.KeptPages),
		"all_kept", res.AllKept(),
	)

	if *out != "" && res.Trimmed != nil {
		if err := os.WriteFile(*out, res.Trimmed, 0o644); err != nil {
			logger.Error("write trimmed pdf", "path", *out, "error", err)
			os.Exit(1)
		}
		logger.Info("trimmed pdf written", "path", *out, "bytes", len(res.Trimmed))
	}
}
