package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"apptrack/internal/model"
)

// AllCycles selects the union of every cycle on the read and metrics
// paths. Union is plain row concatenation: entries are cycle-scoped by
// construction, so there is nothing to deduplicate, and ids are only
// unique within their own cycle.
const AllCycles = "All Cycles"

// Columns a cell edit may target, keyed by lowercased display header.
var editableColumns = map[string]string{
	"date":        "date",
	"position":    "position",
	"company":     "company",
	"description": "description",
	"link":        "link",
	"tags":        "tags",
	"status":      "status",
}

// AddEntry inserts one application into the named cycle. The id is
// assigned by the store and never reused.
func (s *Store) AddEntry(ctx context.Context, cycle string, entry *model.Entry) error {
	table, err := s.resolveCycle(ctx, cycle)
	if err != nil {
		return err
	}
	if err := s.validateEntry(entry); err != nil {
		return err
	}

	entry.ID = 0
	entry.Date = dateOnly(entry.Date)
	if err := s.db.WithContext(ctx).Table(table).Create(entry).Error; err != nil {
		return fmt.Errorf("add entry to %s: %w", table, err)
	}
	return nil
}

func (s *Store) validateEntry(entry *model.Entry) error {
	switch {
	case entry.Date.IsZero():
		return fmt.Errorf("date is required: %w", ErrValidation)
	case strings.TrimSpace(entry.Position) == "":
		return fmt.Errorf("position is required: %w", ErrValidation)
	case strings.TrimSpace(entry.Company) == "":
		return fmt.Errorf("company is required: %w", ErrValidation)
	case strings.TrimSpace(entry.Status) == "":
		return fmt.Errorf("status is required: %w", ErrValidation)
	case !s.vocab.StatusKnown(entry.Status):
		return fmt.Errorf("unknown status %q: %w", entry.Status, ErrValidation)
	}
	return nil
}

// UpdateEntryCells applies cell-level edits to the named cycle. Row
// indexes refer to positions in a previously displayed table; rowIDs
// carries that table's id column in display order, so every edit lands
// on the entry the caller actually saw no matter how the view was
// sorted. All edits commit or roll back together.
func (s *Store) UpdateEntryCells(ctx context.Context, cycle string, rowIDs []uint, edits map[int]map[string]string) error {
	table, err := s.resolveCycle(ctx, cycle)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for idx, cells := range edits {
			if idx < 0 || idx >= len(rowIDs) {
				return fmt.Errorf("row %d outside displayed table: %w", idx, ErrIntegrity)
			}
			id := rowIDs[idx]
			for col, raw := range cells {
				column, ok := editableColumns[strings.ToLower(strings.TrimSpace(col))]
				if !ok {
					return fmt.Errorf("column %q not editable: %w", col, ErrIntegrity)
				}
				value, err := s.cellValue(column, raw)
				if err != nil {
					return err
				}
				res := tx.Table(table).Where("id = ?", id).Update(column, value)
				if res.Error != nil {
					return fmt.Errorf("update %s.%s: %w", table, column, res.Error)
				}
				if res.RowsAffected == 0 {
					return fmt.Errorf("entry %d in %s: %w", id, table, ErrNotFound)
				}
			}
		}
		return nil
	})
}

func (s *Store) cellValue(column, raw string) (any, error) {
	switch column {
	case "date":
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, fmt.Errorf("date %q: %w", raw, ErrValidation)
		}
		return dateOnly(d), nil
	case "position", "company":
		if strings.TrimSpace(raw) == "" {
			return nil, fmt.Errorf("%s is required: %w", column, ErrValidation)
		}
	case "status":
		if !s.vocab.StatusKnown(raw) {
			return nil, fmt.Errorf("unknown status %q: %w", raw, ErrValidation)
		}
	}
	return raw, nil
}

// GetApplications reads every cycle back, keyed by display name, each
// sorted ascending by date. This is the canonical read path metrics
// and the presentation layer both consume.
func (s *Store) GetApplications(ctx context.Context) (map[string][]model.Entry, error) {
	cycles, err := s.ListCycles(ctx, false)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]model.Entry, len(cycles))
	for _, table := range cycles {
		entries, err := s.readCycle(ctx, table)
		if err != nil {
			return nil, err
		}
		out[DisplayCycle(table)] = entries
	}
	return out, nil
}

// CycleEntries returns one cycle's entries, or the date-sorted union of
// all cycles for AllCycles.
func (s *Store) CycleEntries(ctx context.Context, cycle string) ([]model.Entry, error) {
	if cycle == AllCycles {
		apps, err := s.GetApplications(ctx)
		if err != nil {
			return nil, err
		}
		var union []model.Entry
		for _, entries := range apps {
			union = append(union, entries...)
		}
		sort.SliceStable(union, func(i, j int) bool {
			return union[i].Date.Before(union[j].Date)
		})
		return union, nil
	}

	table, err := s.resolveCycle(ctx, cycle)
	if err != nil {
		return nil, err
	}
	return s.readCycle(ctx, table)
}

func (s *Store) readCycle(ctx context.Context, table string) ([]model.Entry, error) {
	var entries []model.Entry
	err := s.db.WithContext(ctx).
		Table(table).
		Order("date ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("read cycle %s: %w", table, err)
	}
	return entries, nil
}

// dateOnly drops the time-of-day component; entries live at calendar
// date granularity.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
