package repository

import (
	"context"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) (*model.SystemConfig, error)
	List(ctx context.Context) ([]model.SystemConfig, error)
	// Set upserts a value, keeping an existing description.
	Set(ctx context.Context, key, value string) (*model.SystemConfig, error)
	// SeedDefaults inserts each default only when its key is absent.
	SeedDefaults(ctx context.Context, defaults []model.SystemConfig) error
}

type settingsRepo struct{ db *gorm.DB }

func NewSettingsRepository(db *gorm.DB) SettingsRepository { return &settingsRepo{db: db} }

func (r *settingsRepo) Get(ctx context.Context, key string) (*model.SystemConfig, error) {
	var c model.SystemConfig
	if err := r.db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).First(&c).Error; err != nil {
		return nil, notFound("setting", err)
	}
	return &c, nil
}

func (r *settingsRepo) List(ctx context.Context) ([]model.SystemConfig, error) {
	var rows []model.SystemConfig
	err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&rows).Error
	return rows, apperror.Storage("list settings", err)
}

func (r *settingsRepo) Set(ctx context.Context, key, value string) (*model.SystemConfig, error) {
	row := model.SystemConfig{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, apperror.Storage("set setting", err)
	}
	return r.Get(ctx, key)
}

func (r *settingsRepo) SeedDefaults(ctx context.Context, defaults []model.SystemConfig) error {
	if len(defaults) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error
	return apperror.Storage("seed settings", err)
}
