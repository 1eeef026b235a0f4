package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"bookpos/internal/apperror"
	"bookpos/internal/dto"
	"bookpos/internal/model"
	"bookpos/internal/repository"

	"github.com/shopspring/decimal"
)

// SettingsService reads and writes the system_config key/value store.
type SettingsService interface {
	Get(ctx context.Context, key string) (*dto.SettingResponse, error)
	List(ctx context.Context) ([]dto.SettingResponse, error)
	Set(ctx context.Context, key, value string) (*dto.SettingResponse, error)
	SeedDefaults(ctx context.Context) error
	// MinStockAlert is the default min_stock for new books.
	MinStockAlert(ctx context.Context) int
}

type settingsService struct {
	repo repository.SettingsRepository
}

func NewSettingsService(repo repository.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

func (s *settingsService) Get(ctx context.Context, key string) (*dto.SettingResponse, error) {
	c, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	r := settingToResponse(c)
	return &r, nil
}

func (s *settingsService) List(ctx context.Context) ([]dto.SettingResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SettingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, settingToResponse(&rows[i]))
	}
	return out, nil
}

func (s *settingsService) Set(ctx context.Context, key, value string) (*dto.SettingResponse, error) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if err := validateSetting(key, value); err != nil {
		return nil, err
	}
	c, err := s.repo.Set(ctx, key, value)
	if err != nil {
		return nil, err
	}
	r := settingToResponse(c)
	return &r, nil
}

func (s *settingsService) SeedDefaults(ctx context.Context) error {
	return s.repo.SeedDefaults(ctx, model.DefaultSettings())
}

func (s *settingsService) MinStockAlert(ctx context.Context) int {
	c, err := s.repo.Get(ctx, model.ConfigMinStockAlert)
	if err != nil {
		return model.DefaultMinStock
	}
	n, err := strconv.Atoi(c.Value)
	if err != nil || n < 0 {
		return model.DefaultMinStock
	}
	return n
}

func validateSetting(key, value string) error {
	if key == "" {
		return apperror.Validation(map[string]string{"key": "required"})
	}
	if value == "" {
		return apperror.Validation(map[string]string{"value": "required"})
	}
	switch key {
	case model.ConfigTaxRate:
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
			return apperror.Validation(map[string]string{"value": "tax_rate must be a percent within [0, 100]"})
		}
	case model.ConfigMinStockAlert:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return apperror.Validation(map[string]string{"value": "min_stock_alert must be an integer >= 0"})
		}
	}
	return nil
}

func settingToResponse(c *model.SystemConfig) dto.SettingResponse {
	return dto.SettingResponse{
		Key:         c.Key,
		Value:       c.Value,
		Description: c.Description,
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}
