package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"apptrack/internal/model"
)

// SettingDefaultCycle is the only settings key currently defined.
const SettingDefaultCycle = "default_cycle"

// GetSetting reads a value from the singleton settings row.
// An unknown key or an unset value is ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	if key != SettingDefaultCycle {
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}

	var row model.Setting
	err := s.db.WithContext(ctx).First(&row, 1).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	case err != nil:
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	if row.DefaultCycle == "" {
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	return row.DefaultCycle, nil
}

// UpdateSetting replaces the value for key on the singleton row.
func (s *Store) UpdateSetting(ctx context.Context, key, value string) error {
	if key != SettingDefaultCycle {
		return fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}

	row := model.Setting{ID: 1, DefaultCycle: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("update setting %q: %w", key, err)
	}
	return nil
}
