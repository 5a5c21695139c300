package model

import "strings"

// VerificationStatus is the lifecycle of a mission's automated checks.
//
//	DRAFT -> PENDING -> {SUCCESS, FAILED, REVIEW_NEEDED}
//
// A forge save always re-queues the mission (-> PENDING) regardless of
// the prior state. Terminal states only change through a new save or a
// verification callback.
type VerificationStatus string

const (
	VerificationDraft        VerificationStatus = "DRAFT"
	VerificationPending      VerificationStatus = "PENDING"
	VerificationSuccess      VerificationStatus = "SUCCESS"
	VerificationFailed       VerificationStatus = "FAILED"
	VerificationReviewNeeded VerificationStatus = "REVIEW_NEEDED"
)

// ParseCallbackStatus maps a callback status string to a status the
// pipeline is allowed to set. DRAFT is not reachable from a callback:
// only the forge itself puts a mission back into drafting.
func ParseCallbackStatus(raw string) (VerificationStatus, bool) {
	switch VerificationStatus(strings.ToUpper(raw)) {
	case VerificationPending:
		return VerificationPending, true
	case VerificationSuccess:
		return VerificationSuccess, true
	case VerificationFailed:
		return VerificationFailed, true
	case VerificationReviewNeeded:
		return VerificationReviewNeeded, true
	default:
		return "", false
	}
}

// IsTerminal reports whether the status is a verification outcome.
func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationSuccess || s == VerificationFailed || s == VerificationReviewNeeded
}
