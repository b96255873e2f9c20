package returns

// ReturnStatus represents the lifecycle state of a return record
type ReturnStatus string

const (
	StatusDraft     ReturnStatus = "Draft"
	StatusRequested ReturnStatus = "Requested"

	StatusJobAccepted    ReturnStatus = "JobAccepted"
	StatusBranchReceived ReturnStatus = "BranchReceived"
	StatusConsolidated   ReturnStatus = "Consolidated"
	StatusInTransit      ReturnStatus = "InTransit"
	StatusHubReceived    ReturnStatus = "HubReceived"

	StatusQCPassed ReturnStatus = "QCPassed"
	StatusQCFailed ReturnStatus = "QCFailed"
	StatusGraded   ReturnStatus = "Graded"

	StatusDocumented ReturnStatus = "Documented"
	StatusCompleted  ReturnStatus = "Completed"

	// Bypass edge: skips hub grading entirely
	StatusDirectReturn     ReturnStatus = "DirectReturn"
	StatusReturnToSupplier ReturnStatus = "ReturnToSupplier"

	StatusCanceled ReturnStatus = "Canceled"
)

// IsValid checks if the status is a known ReturnStatus
func (s ReturnStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusRequested, StatusJobAccepted, StatusBranchReceived,
		StatusConsolidated, StatusInTransit, StatusHubReceived,
		StatusQCPassed, StatusQCFailed, StatusGraded, StatusDocumented,
		StatusCompleted, StatusDirectReturn, StatusReturnToSupplier, StatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status ends the lifecycle.
func (s ReturnStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// IsGrading reports whether the status is one of the hub grading outcomes.
func (s ReturnStatus) IsGrading() bool {
	return s == StatusQCPassed || s == StatusQCFailed || s == StatusGraded
}

// IsLocked reports whether a document carrying this status may no longer
// receive new or edited line items. Only Draft and Requested are editable
// ("Step 1"); everything else locks the whole document number.
func (s ReturnStatus) IsLocked() bool {
	return s != StatusDraft && s != StatusRequested
}

// CanTransitionTo checks if the status can transition forward to target.
// Canceled is reachable from any non-terminal state (soft delete).
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	if target == StatusCanceled {
		return !s.IsTerminal()
	}
	switch s {
	case StatusDraft:
		return target == StatusRequested || target == StatusJobAccepted
	case StatusRequested:
		return target == StatusJobAccepted ||
			target == StatusDirectReturn || target == StatusReturnToSupplier
	case StatusJobAccepted:
		return target == StatusBranchReceived
	case StatusBranchReceived:
		return target == StatusConsolidated
	case StatusConsolidated:
		return target == StatusInTransit
	case StatusInTransit:
		return target == StatusHubReceived
	case StatusHubReceived:
		return target.IsGrading()
	case StatusQCPassed, StatusQCFailed, StatusGraded:
		return target == StatusDocumented
	case StatusDocumented:
		return target == StatusCompleted
	case StatusDirectReturn, StatusReturnToSupplier:
		return target == StatusCompleted
	case StatusCompleted, StatusCanceled:
		return false
	}
	return false
}

// predecessors maps each status to the state an undo returns it to. Statuses
// with several legal predecessors are resolved by the record itself (see
// ReturnRecord.PreviousStatus), which knows which path it actually took.
var predecessors = map[ReturnStatus]ReturnStatus{
	StatusRequested:        StatusDraft,
	StatusJobAccepted:      StatusRequested,
	StatusBranchReceived:   StatusJobAccepted,
	StatusConsolidated:     StatusBranchReceived,
	StatusInTransit:        StatusConsolidated,
	StatusHubReceived:      StatusInTransit,
	StatusQCPassed:         StatusHubReceived,
	StatusQCFailed:         StatusHubReceived,
	StatusGraded:           StatusHubReceived,
	StatusDocumented:       StatusGraded,
	StatusDirectReturn:     StatusRequested,
	StatusReturnToSupplier: StatusRequested,
}
