package insight

import (
	"context"
	"encoding/json"
	"log/slog"
)

// ApplyRequest is the boundary payload handed to the analytics subsystem
// when a document completes: the standardized sections plus file identity.
type ApplyRequest struct {
	FileID       string
	UserID       string
	SessionID    string
	CollectionID string

	Metadata     json.RawMessage
	Metrics      json.RawMessage
	Transactions json.RawMessage
	Narrative    string
}

// Applier upserts a downstream insight record from an extracted document.
// The analytics math behind it is outside this subsystem.
type Applier interface {
	ApplyExtracted(ctx context.Context, req ApplyRequest) error
}

// LogApplier is the default Applier: it records the hand-off and does
// nothing else. Deployments wire the real analytics implementation here.
type LogApplier struct {
	Log *slog.Logger
}

func (a *LogApplier) ApplyExtracted(_ context.Context, req ApplyRequest) error {
	log := a.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("insight.apply",
		"file_id", req.FileID,
		"user_id", req.UserID,
		"session_id", req.SessionID,
		"metadata_bytes", len(req.Metadata),
		"metrics_bytes", len(req.Metrics),
		"transactions_bytes", len(req.Transactions),
		"narrative_len", len(req.Narrative),
	)
	return nil
}
