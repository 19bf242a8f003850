package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prepmate/practice-service/internal/models"
	"github.com/prepmate/practice-service/internal/repositories"
)

type ProfilePostgreSQL struct {
	db *gorm.DB
}

func NewProfilePostgreSQL(db *gorm.DB) repositories.ProfileRepository {
	return &ProfilePostgreSQL{db: db}
}

func (p *ProfilePostgreSQL) Load(ctx context.Context, userID string) (*models.AnalyticsProfile, error) {
	var row models.ProfileRow
	err := p.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var profile models.AnalyticsProfile
	if err := json.Unmarshal(row.Data, &profile); err != nil {
		return nil, fmt.Errorf("decode analytics profile for %s: %w", userID, err)
	}
	return &profile, nil
}

func (p *ProfilePostgreSQL) Save(ctx context.Context, profile *models.AnalyticsProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode analytics profile for %s: %w", profile.UserID, err)
	}

	row := models.ProfileRow{
		UserID: profile.UserID,
		Data:   data,
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
}
