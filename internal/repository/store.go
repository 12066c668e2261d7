package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"apptrack/internal/model"
)

const storeFile = "applications.db"

// Manager opens per-user stores beneath a shared data directory. The
// authenticated identity selects the directory; each user gets a fully
// isolated database file.
type Manager struct {
	dir    string
	vocab  model.Vocabulary
	cycles []string
}

// NewManager builds a manager. cycles are the predefined cycle display
// names created idempotently every time a store is opened.
func NewManager(dir string, vocab model.Vocabulary, cycles []string) *Manager {
	return &Manager{dir: dir, vocab: vocab, cycles: cycles}
}

// Open opens the named user's store, creating bookkeeping tables and
// all predefined cycles if absent. The caller owns the returned store
// and must Close it.
func (m *Manager) Open(ctx context.Context, user string) (*Store, error) {
	if err := validUser(user); err != nil {
		return nil, err
	}

	db, err := openDB(filepath.Join(m.dir, user, storeFile))
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, vocab: m.vocab}
	if err := s.migrate(ctx, m.cycles); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// With runs fn against the named user's store, closing it on every
// exit path. Each call is one unit of work with its own connection.
func (m *Manager) With(ctx context.Context, user string, fn func(*Store) error) error {
	s, err := m.Open(ctx, user)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}

// Users lists identities that already have a store on disk.
func (m *Manager) Users() ([]string, error) {
	dirs, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var users []string
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.dir, d.Name(), storeFile)); err == nil {
			users = append(users, d.Name())
		}
	}
	return users, nil
}

func validUser(user string) error {
	if user == "" || user == "." || user == ".." || strings.ContainsAny(user, `/\`) {
		return fmt.Errorf("user %q: %w", user, ErrValidation)
	}
	return nil
}

// Store is one user's record store: a cycle table per hiring season,
// plus settings, cycle status, and resource bookkeeping tables.
type Store struct {
	db    *gorm.DB
	vocab model.Vocabulary
}

func (s *Store) migrate(ctx context.Context, cycles []string) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.Setting{}, &model.CycleStatus{}, &model.Resource{}); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	for _, cycle := range cycles {
		if err := s.AddCycle(ctx, cycle); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
