package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SonJH7/status-allocation-berths/core/logger"
	"github.com/SonJH7/status-allocation-berths/core/model"
)

// Committer lands a baseline assignment set as a new version. It is satisfied
// by schedule.VersionManager.
type Committer interface {
	Commit(ctx context.Context, baseline []model.Assignment, label string) (string, error)
}

// Batch is the wire format the scrape job publishes: one complete snapshot of
// the berth-assignment table.
type Batch struct {
	Label string `json:"label"`
	Rows  []Row  `json:"rows"`
}

// Adapter normalizes scraped rows and commits them as baseline versions.
type Adapter struct {
	mgr      Committer
	resolver DimensionResolver
	log      logger.Logger
	timeout  time.Duration
}

// NewAdapter creates an Adapter. The resolver may be nil.
func NewAdapter(mgr Committer, resolver DimensionResolver, log logger.Logger) (*Adapter, error) {
	if mgr == nil {
		return nil, fmt.Errorf("committer is required")
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Adapter{mgr: mgr, resolver: resolver, log: log, timeout: 30 * time.Second}, nil
}

// CommitBaseline normalizes the rows and lands them as a new version. Rows
// that fail normalization are returned alongside the version id; the batch is
// rejected outright when no row survives.
func (a *Adapter) CommitBaseline(ctx context.Context, rows []Row, label string) (string, []RowError, error) {
	assignments, rowErrs := Normalize(rows, a.resolver)
	for _, re := range rowErrs {
		a.log.Warnf("ingest: skipping %v", re)
	}
	if len(assignments) == 0 {
		return "", rowErrs, fmt.Errorf("no valid rows in batch of %d", len(rows))
	}
	id, err := a.mgr.Commit(ctx, assignments, label)
	if err != nil {
		return "", rowErrs, fmt.Errorf("commit baseline: %w", err)
	}
	a.log.Infof("ingest: committed baseline %s (%d rows, %d skipped)", id, len(assignments), len(rowErrs))
	return id, rowErrs, nil
}

// HandleFeedMessage decodes one published batch and commits it. It matches
// the feed subscriber's handler signature; malformed payloads are logged and
// dropped.
func (a *Adapter) HandleFeedMessage(payload []byte) {
	var batch Batch
	if err := json.Unmarshal(payload, &batch); err != nil {
		a.log.Errorf("ingest: malformed feed payload: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if _, _, err := a.CommitBaseline(ctx, batch.Rows, batch.Label); err != nil {
		a.log.Errorf("ingest: %v", err)
	}
}
