package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"apptrack/internal/model"
)

// cycleTable is the shape every normalized cycle identity must take.
// Anything else is refused before it can reach a CREATE/DROP statement.
var cycleTable = regexp.MustCompile(`^[a-z0-9_]+$`)

// Tables that live alongside the cycle tables but are never cycles
// themselves. sqlite_sequence is SQLite's AUTOINCREMENT bookkeeping.
var internalTables = map[string]bool{
	"user_settings":   true,
	"cycle_status":    true,
	"resources":       true,
	"sqlite_sequence": true,
}

// NormalizeCycle converts a display name ("Summer 2024") into its
// table identity ("summer_2024").
func NormalizeCycle(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

// DisplayCycle converts a table identity back into display form.
func DisplayCycle(table string) string {
	parts := strings.Split(table, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// ListCycles enumerates cycle tables in creation order, excluding the
// bookkeeping tables. With fullNames the identities are converted to
// display form.
func (s *Store) ListCycles(ctx context.Context, fullNames bool) ([]string, error) {
	var tables []string
	err := s.db.WithContext(ctx).
		Raw("SELECT name FROM sqlite_master WHERE type = 'table'").
		Scan(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}

	cycles := make([]string, 0, len(tables))
	for _, t := range tables {
		if internalTables[t] {
			continue
		}
		if fullNames {
			t = DisplayCycle(t)
		}
		cycles = append(cycles, t)
	}
	return cycles, nil
}

// AddCycle creates a cycle table if one with the same normalized
// identity does not already exist. Casing and spacing variants of the
// same name land on the same table.
func (s *Store) AddCycle(ctx context.Context, name string) error {
	table := NormalizeCycle(name)
	if !cycleTable.MatchString(table) || internalTables[table] {
		return fmt.Errorf("cycle name %q: %w", name, ErrValidation)
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date DATE NOT NULL,
		position TEXT NOT NULL,
		company TEXT NOT NULL,
		description TEXT,
		link TEXT,
		tags TEXT,
		status TEXT NOT NULL)`, table)
	if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("create cycle %s: %w", table, err)
	}
	return nil
}

// DeleteCycle irreversibly drops the cycle's table. The caller is
// responsible for confirming intent.
func (s *Store) DeleteCycle(ctx context.Context, name string) error {
	table, err := s.resolveCycle(ctx, name)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Exec(fmt.Sprintf("DROP TABLE %q", table)).Error; err != nil {
		return fmt.Errorf("drop cycle %s: %w", table, err)
	}
	if err := s.db.WithContext(ctx).Where("name = ?", table).Delete(&model.CycleStatus{}).Error; err != nil {
		return fmt.Errorf("clear status for %s: %w", table, err)
	}
	return nil
}

// ActiveCycles returns the normalized identities currently marked open
// for application activity.
func (s *Store) ActiveCycles(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&model.CycleStatus{}).
		Where("active = ?", true).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("active cycles: %w", err)
	}
	return names, nil
}

// UpdateStatuses replaces the active set: every cycle named becomes
// active, every other tracked cycle inactive, in one transaction.
func (s *Store) UpdateStatuses(ctx context.Context, active []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&model.CycleStatus{}).
			Update("active", false).Error
		if err != nil {
			return fmt.Errorf("clear statuses: %w", err)
		}
		for _, name := range active {
			row := model.CycleStatus{Name: NormalizeCycle(name), Active: true}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("mark %s active: %w", row.Name, err)
			}
		}
		return nil
	})
}

// resolveCycle normalizes a display name and verifies its table exists.
func (s *Store) resolveCycle(ctx context.Context, name string) (string, error) {
	table := NormalizeCycle(name)
	if !cycleTable.MatchString(table) || internalTables[table] {
		return "", fmt.Errorf("cycle name %q: %w", name, ErrValidation)
	}
	if !s.db.WithContext(ctx).Migrator().HasTable(table) {
		return "", fmt.Errorf("cycle %q: %w", name, ErrNotFound)
	}
	return table, nil
}
