package controllers

import (
	"errors"

	"poolside/internal/adapters/bookingapi"
	"poolside/internal/domain/audit"
)

func isPayload(err error) bool { return errors.Is(err, bookingapi.ErrPayload) }

func isApplication(err error) bool { return errors.Is(err, bookingapi.ErrApplication) }

// outcomeOf classifies a call result for the audit log.
func outcomeOf(err error) audit.Outcome {
	switch {
	case err == nil:
		return audit.OutcomeSuccess
	case isApplication(err):
		return audit.OutcomeRejected
	}
	var statusErr *bookingapi.StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return audit.OutcomeRejected
	}
	return audit.OutcomeFailed
}
