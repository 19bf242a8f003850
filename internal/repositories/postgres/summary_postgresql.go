package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/prepmate/practice-service/internal/models"
	"github.com/prepmate/practice-service/internal/repositories"
)

type SummaryPostgreSQL struct {
	db *gorm.DB
}

func NewSummaryPostgreSQL(db *gorm.DB) repositories.SessionSummaryRepository {
	return &SummaryPostgreSQL{db: db}
}

func (s *SummaryPostgreSQL) Create(ctx context.Context, summary *models.SessionSummaryRow) error {
	return s.db.WithContext(ctx).Create(summary).Error
}

func (s *SummaryPostgreSQL) GetByUser(ctx context.Context, userID string, limit int) ([]*models.SessionSummaryRow, error) {
	var rows []*models.SessionSummaryRow
	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Repository is the postgres-backed bundle handed to the services.
type Repository struct {
	profiles  repositories.ProfileRepository
	summaries repositories.SessionSummaryRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		profiles:  NewProfilePostgreSQL(db),
		summaries: NewSummaryPostgreSQL(db),
	}
}

func (r *Repository) Profiles() repositories.ProfileRepository { return r.profiles }

func (r *Repository) Summaries() repositories.SessionSummaryRepository { return r.summaries }

// Migrate creates or updates the storage schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ProfileRow{}, &models.SessionSummaryRow{})
}
