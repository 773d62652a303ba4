package schedule

import "github.com/SonJH7/status-allocation-berths/core/model"

// VersionCommitted is published on the event bus after a version lands.
type VersionCommitted struct {
	Version     model.Version
	Assignments []model.Assignment
}

// EditRejected is published on the event bus when an edit is refused so the
// UI collaborator can reconcile its optimistic display.
type EditRejected struct {
	Proposal     model.EditProposal
	Reason       RejectReason
	OffendingIDs []string
}
