package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SonJH7/status-allocation-berths/core/logger"
	coremetrics "github.com/SonJH7/status-allocation-berths/core/metrics"
	"github.com/SonJH7/status-allocation-berths/core/model"
	"github.com/SonJH7/status-allocation-berths/internal/eventbus"
)

// Result is returned by ApplyEdit on success.
type Result struct {
	VersionID  string           `json:"version_id"`
	Assignment model.Assignment `json:"assignment"`
}

// VersionManager orchestrates snapping, validation and commits. It holds no
// assignment state between calls; the store owns all versions. A single
// lineage lock serializes commits so two concurrent edits cannot both derive
// from the same head.
type VersionManager struct {
	store Store
	cfg   Config
	log   logger.Logger
	sink  coremetrics.EditSink
	bus   eventbus.EventBus

	lineage chan struct{}
	now     func() time.Time
}

// NewVersionManager creates a manager over the given store. Sink and bus may
// be nil.
func NewVersionManager(store Store, cfg Config, log logger.Logger, sink coremetrics.EditSink, bus eventbus.EventBus) (*VersionManager, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("schedule config: %w", err)
	}
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	m := &VersionManager{
		store:   store,
		cfg:     cfg,
		log:     log,
		sink:    sink,
		bus:     bus,
		lineage: make(chan struct{}, 1),
		now:     time.Now,
	}
	return m, nil
}

// lockLineage acquires the commit lock within the configured wait budget.
func (m *VersionManager) lockLineage(ctx context.Context) error {
	timer := time.NewTimer(m.cfg.LockWait())
	defer timer.Stop()
	select {
	case m.lineage <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrConcurrentModification
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *VersionManager) unlockLineage() { <-m.lineage }

// ApplyEdit runs one operator edit through snap, validation and commit.
// On rejection the returned error is a *RejectedError and the store is left
// untouched.
func (m *VersionManager) ApplyEdit(ctx context.Context, p model.EditProposal) (Result, error) {
	began := m.now()
	if err := p.Validate(); err != nil {
		return Result{}, reject(ReasonInvalidRange, nil, err)
	}
	if err := m.lockLineage(ctx); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return Result{}, reject(ReasonConcurrentModification, nil, err)
		}
		return Result{}, err
	}
	defer m.unlockLineage()

	head, current, err := m.store.Head(ctx)
	if err != nil {
		if errors.Is(err, ErrUnknownVersion) {
			return Result{}, reject(ReasonUnknownVersion, nil, fmt.Errorf("no baseline ingested: %w", err))
		}
		return Result{}, fmt.Errorf("load head: %w", err)
	}

	var cur *model.Assignment
	for i := range current {
		if current[i].ID == p.AssignmentID {
			cur = &current[i]
			break
		}
	}
	if cur == nil {
		return Result{}, fmt.Errorf("version %s: %w: %s", head.ID, ErrUnknownAssignment, p.AssignmentID)
	}

	cand, err := Snap(*cur, p, m.cfg.Grid())
	if err != nil {
		m.rejected(p, ReasonInvalidRange, nil, began)
		return Result{}, reject(ReasonInvalidRange, nil, err)
	}
	if err := Validate(cand, current, m.cfg.Separation); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			m.rejected(p, conflict.Reason, conflict.OffendingIDs, began)
			return Result{}, reject(conflict.Reason, conflict.OffendingIDs, err)
		}
		m.rejected(p, ReasonInvalidRange, nil, began)
		return Result{}, reject(ReasonInvalidRange, nil, err)
	}

	next := make([]model.Assignment, len(current))
	copy(next, current)
	for i := range next {
		if next[i].ID == cand.ID {
			next[i] = cand
			break
		}
	}
	v, err := m.commitLocked(ctx, head.ID, model.SourceEdit, "", current, next)
	if err != nil {
		return Result{}, err
	}
	m.committed(coremetrics.OpEdit, v, next, cand.Berth, began)
	return Result{VersionID: v.ID, Assignment: cand}, nil
}

// Commit lands a freshly scraped baseline as a new version. Validation is
// deliberately bypassed: raw external data is ground truth and pre-existing
// conflicts surface on the next edit attempt instead.
func (m *VersionManager) Commit(ctx context.Context, baseline []model.Assignment, label string) (string, error) {
	began := m.now()
	assignments := make([]model.Assignment, len(baseline))
	for i, a := range baseline {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.Terminal == model.TerminalUnknown {
			a.Terminal = model.InferTerminal(a.Berth)
		}
		if err := a.Validate(); err != nil {
			return "", fmt.Errorf("baseline row %d: %w", i, err)
		}
		assignments[i] = a
	}
	if err := m.lockLineage(ctx); err != nil {
		return "", err
	}
	defer m.unlockLineage()

	parentID := ""
	var parentSet []model.Assignment
	head, cur, err := m.store.Head(ctx)
	switch {
	case err == nil:
		parentID, parentSet = head.ID, cur
	case errors.Is(err, ErrUnknownVersion):
		// First ingestion: root of the lineage.
	default:
		return "", fmt.Errorf("load head: %w", err)
	}

	v, err := m.commitLocked(ctx, parentID, model.SourceIngest, label, parentSet, assignments)
	if err != nil {
		return "", err
	}
	m.committed(coremetrics.OpIngest, v, assignments, "", began)
	return v.ID, nil
}

// Revert commits a new version whose assignment set equals the target's,
// parented on the current head. History is never rewritten; reverting to the
// head itself still lands an empty-diff version so the request is audited.
func (m *VersionManager) Revert(ctx context.Context, targetVersionID string) (string, error) {
	began := m.now()
	if err := m.lockLineage(ctx); err != nil {
		return "", err
	}
	defer m.unlockLineage()

	target, targetSet, err := m.store.Get(ctx, targetVersionID)
	if err != nil {
		return "", fmt.Errorf("revert target: %w", err)
	}
	head, current, err := m.store.Head(ctx)
	if err != nil {
		return "", fmt.Errorf("load head: %w", err)
	}
	label := fmt.Sprintf("revert to %s", target.ID)
	v, err := m.commitLocked(ctx, head.ID, model.SourceRevert, label, current, targetSet)
	if err != nil {
		return "", err
	}
	m.committed(coremetrics.OpRevert, v, targetSet, "", began)
	return v.ID, nil
}

// Compare returns the read-only field diff between two versions. No lock is
// taken; committed versions are immutable.
func (m *VersionManager) Compare(ctx context.Context, aID, bID string) (model.Diff, error) {
	_, aSet, err := m.store.Get(ctx, aID)
	if err != nil {
		return nil, fmt.Errorf("version %s: %w", aID, err)
	}
	_, bSet, err := m.store.Get(ctx, bID)
	if err != nil {
		return nil, fmt.Errorf("version %s: %w", bID, err)
	}
	return model.ComputeDiff(aSet, bSet), nil
}

// GetVersion returns one version and its assignment set.
func (m *VersionManager) GetVersion(ctx context.Context, id string) (model.Version, []model.Assignment, error) {
	return m.store.Get(ctx, id)
}

// ListVersions returns every committed version in commit order.
func (m *VersionManager) ListVersions(ctx context.Context) ([]model.Version, error) {
	return m.store.List(ctx)
}

// commitLocked writes the next version. The lineage lock must be held.
func (m *VersionManager) commitLocked(ctx context.Context, parentID string, src model.Source, label string, parentSet, next []model.Assignment) (model.Version, error) {
	v := model.Version{
		ID:        uuid.NewString(),
		ParentID:  parentID,
		CreatedAt: m.now().UTC(),
		Label:     label,
		Source:    src,
		Diff:      model.ComputeDiff(parentSet, next),
	}
	stored, err := m.store.Commit(ctx, v, next)
	if err != nil {
		return model.Version{}, fmt.Errorf("commit version: %w", err)
	}
	return stored, nil
}

func (m *VersionManager) committed(op string, v model.Version, set []model.Assignment, berth string, began time.Time) {
	m.log.Infof("%s committed version %s (seq %d, parent %s, %d changes)",
		op, v.ID, v.Seq, v.ParentID, len(v.Diff))
	if err := m.sink.RecordEdit(coremetrics.EditEvent{
		Op:        op,
		Outcome:   coremetrics.OutcomeCommitted,
		VersionID: v.ID,
		Berth:     berth,
		Latency:   m.now().Sub(began),
		Timestamp: m.now(),
	}); err != nil {
		m.log.Warnf("metrics sink: %v", err)
	}
	if m.bus != nil {
		m.bus.Publish(VersionCommitted{Version: v, Assignments: set})
	}
}

func (m *VersionManager) rejected(p model.EditProposal, reason RejectReason, ids []string, began time.Time) {
	m.log.Infof("edit of %s rejected: %s %v", p.AssignmentID, reason, ids)
	if err := m.sink.RecordEdit(coremetrics.EditEvent{
		Op:        coremetrics.OpEdit,
		Outcome:   coremetrics.OutcomeRejected,
		Reason:    string(reason),
		Latency:   m.now().Sub(began),
		Timestamp: m.now(),
	}); err != nil {
		m.log.Warnf("metrics sink: %v", err)
	}
	if m.bus != nil {
		m.bus.Publish(EditRejected{Proposal: p, Reason: reason, OffendingIDs: ids})
	}
}
