package leave

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// canTransition reports whether a status change is legal. PENDING is the
// only non-terminal state: every decided or cancelled request stays where
// it is.
func canTransition(currentStatus, targetStatus string) bool {
	if currentStatus != StatusPending {
		return false
	}

	switch targetStatus {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}
