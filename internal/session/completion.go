package session

import (
	"time"

	"github.com/mardix/equiptest/pkg/metrics"
)

// EvaluateCompletion derives Status and EndDate from the signatories present
// on s. A session completes when the primary (Mardix) signatory has signed
// and, if the session type requires witnessing, at least one witness (Mardix
// or client) has signed too.
//
// On transition to Completed the end date is the supplied one when given,
// else the already-stored one, else now. Once Completed, the end date is
// never cleared. When the condition is not met nothing changes; this
// evaluator does not regress Completed sessions.
func EvaluateCompletion(s *Session, requiresWitness bool, suppliedEnd *time.Time, now time.Time) {
	signed := s.MardixSignatory != ""
	witnessed := s.MardixWitnessSignatory != "" || s.ClientWitnessSignatory != ""
	if !signed || (requiresWitness && !witnessed) {
		return
	}

	if s.Status != StatusCompleted {
		metrics.SessionsCompleted.Inc()
	}
	s.Status = StatusCompleted
	switch {
	case suppliedEnd != nil:
		t := suppliedEnd.UTC()
		s.EndDate = &t
	case s.EndDate != nil:
		// keep the stored end date
	default:
		t := now.UTC()
		s.EndDate = &t
	}
}
