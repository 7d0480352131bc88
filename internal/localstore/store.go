// Package localstore keeps the ledger, activity log and command slot in a
// single SQLite file through gorm. It backs DB_DRIVER=sqlite and mirrors the
// Postgres repositories method for method.
package localstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kjannette/bullionaire-backend/internal/logger"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// Open opens (creating if needed) the SQLite database at path. ":memory:"
// gives a private in-memory database.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("localstore: path is required")
	}

	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("localstore: create dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&accountModel{},
		&positionModel{},
		&activityModel{},
		&commandSlotModel{},
		&commandHistoryModel{},
	); err != nil {
		return nil, err
	}
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_positions_open_per_account
		 ON positions (account_id) WHERE status = 'OPEN'`,
	).Error; err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one writer; also keeps ":memory:" on a single connection
	sqlDB.SetMaxOpenConns(1)

	return &Store{db: db, log: logger.Named("LOCALSTORE")}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Accounts() *AccountStore    { return &AccountStore{s} }
func (s *Store) Positions() *PositionStore  { return &PositionStore{s} }
func (s *Store) Activities() *ActivityStore { return &ActivityStore{s} }
func (s *Store) Commands() *CommandStore    { return &CommandStore{s} }
