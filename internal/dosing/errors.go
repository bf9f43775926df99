package dosing

import "errors"

// Kind identifies which rule a rejected record violated. Exactly one kind
// is reported per failing validation call (first violated rule wins).
type Kind string

const (
	// Regimen kinds
	KindMissingSafetyEnvelope    Kind = "missing_safety_envelope"
	KindUnexpectedSafetyEnvelope Kind = "unexpected_safety_envelope"

	// Schedule kinds
	KindRegimenMismatch    Kind = "regimen_mismatch"
	KindInvalidDateRange   Kind = "invalid_date_range"
	KindMissingInterval    Kind = "missing_interval"
	KindMissingWeeklyDays  Kind = "missing_weekly_days"

	// Dose log kinds
	KindMissingTakenTime        Kind = "missing_taken_time"
	KindMissingReason           Kind = "missing_reason"
	KindDailyLimitExceeded      Kind = "daily_limit_exceeded"
	KindMinimumSpacingViolated  Kind = "minimum_spacing_violated"
	KindMissingScheduledTime    Kind = "missing_scheduled_time"
)

// Error is a validation rejection. It is never fatal: callers surface the
// kind and message to their user and abort the write.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func reject(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the rejection kind from err, if it is a validation
// rejection. Errors from the history collaborator are not rejections.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsRejection reports whether err is a validation rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	_, ok := KindOf(err)
	return ok
}
