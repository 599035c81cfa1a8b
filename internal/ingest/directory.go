package ingest

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tolu-adebayo/finsight/constants"
)

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// IngestDirectory walks root and ingests every allowed file for one user.
// Used by the batch CLI; per-file failures are recorded, not fatal, so one
// bad document never aborts its siblings.
func (i *Ingestor) IngestDirectory(ctx context.Context, userID, root string, skipHidden bool) ([]Result, DirStats, error) {
	var results []Result
	var stats DirStats

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			i.log.Warn("walk error", "path", p, "error", walkErr)
			return nil
		}
		if skipHidden && isHidden(p) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !constants.AllowedExt(filepath.Ext(p)) {
			return nil
		}
		stats.Matched++

		data, err := os.ReadFile(p)
		if err != nil {
			stats.Failed++
			i.log.Warn("read file failed", "path", p, "error", err)
			return nil
		}
		res, err := i.Ingest(ctx, Request{UserID: userID, Filename: filepath.Base(p), Data: data})
		if err != nil {
			stats.Failed++
			i.log.Warn("ingest failed", "path", p, "error", err)
			return nil
		}

		results = append(results, res)
		stats.Succeeded++
		if res.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	return results, stats, err
}

func isHidden(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}
