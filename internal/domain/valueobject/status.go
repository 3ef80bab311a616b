package valueobject

import "github.com/Derecoder4/Freelance-Fi/internal/pkg/apperror"

type GigStatus string

const (
	GigStatusPending    GigStatus = "pending"
	GigStatusInProgress GigStatus = "in_progress"
	GigStatusDisputed   GigStatus = "disputed"
	GigStatusCompleted  GigStatus = "completed"
	GigStatusRefunded   GigStatus = "refunded"
)

func (s GigStatus) IsValid() bool {
	switch s {
	case GigStatusPending, GigStatusInProgress, GigStatusDisputed, GigStatusCompleted, GigStatusRefunded:
		return true
	}
	return false
}

func (s GigStatus) IsTerminal() bool {
	return s == GigStatusCompleted || s == GigStatusRefunded
}

// DeriveGigStatus выводит статус из флагов в строгом порядке приоритета.
func DeriveGigStatus(accepted, disputed, completed, refunded bool) GigStatus {
	switch {
	case refunded:
		return GigStatusRefunded
	case completed:
		return GigStatusCompleted
	case disputed:
		return GigStatusDisputed
	case accepted:
		return GigStatusInProgress
	default:
		return GigStatusPending
	}
}

func NewGigStatus(status string) (GigStatus, error) {
	s := GigStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeInvalidInput, "некорректный статус сделки")
	}
	return s, nil
}

