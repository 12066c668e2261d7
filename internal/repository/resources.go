package repository

import (
	"context"
	"fmt"
	"strings"

	"apptrack/internal/model"
)

// AddResource appends a label + link record. Resources share the store
// but never feed metrics.
func (s *Store) AddResource(ctx context.Context, name, link string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("resource name is required: %w", ErrValidation)
	}
	res := model.Resource{Name: name, Link: link}
	if err := s.db.WithContext(ctx).Create(&res).Error; err != nil {
		return fmt.Errorf("add resource: %w", err)
	}
	return nil
}

// Resources lists all stored resources in insertion order.
func (s *Store) Resources(ctx context.Context) ([]model.Resource, error) {
	var rows []model.Resource
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return rows, nil
}
