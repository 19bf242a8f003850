package repositories

import (
	"context"
	"errors"

	"github.com/prepmate/practice-service/internal/models"
)

// ErrNotFound is returned by repositories when the requested record does
// not exist.
var ErrNotFound = errors.New("record not found")

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ProfileRepository persists analytics profiles. Load returns (nil, nil)
// for a user with no stored profile; the aggregator starts one fresh.
type ProfileRepository interface {
	Load(ctx context.Context, userID string) (*models.AnalyticsProfile, error)
	Save(ctx context.Context, profile *models.AnalyticsProfile) error
}

// SessionSummaryRepository persists completed-session summaries, including
// partial sub-sessions cut short by stop or mid-exam submit.
type SessionSummaryRepository interface {
	Create(ctx context.Context, summary *models.SessionSummaryRow) error
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.SessionSummaryRow, error)
}

// Repository bundles the persistence interfaces the way the services
// consume them.
type Repository interface {
	Profiles() ProfileRepository
	Summaries() SessionSummaryRepository
}
