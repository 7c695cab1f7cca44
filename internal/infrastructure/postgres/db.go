// Package postgres stores the marketplace in PostgreSQL through gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/uow"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/observability"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
}

// Open connects to PostgreSQL. Driver errors are translated so unique violations
// surface as gorm.ErrDuplicatedKey.
func Open(cfg Config, logger observability.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(logger, cfg.SlowThreshold),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&userRecord{},
		&productRecord{},
		&cartItemRecord{},
		&orderRecord{},
		&orderItemRecord{},
	); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Store is the gorm-backed uow.Transactor plus non-transactional repositories.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ uow.Transactor = (*Store)(nil)

func (s *Store) Products() product.Repository { return &ProductRepository{db: s.db} }
func (s *Store) Orders() order.Repository     { return &OrderRepository{db: s.db} }
func (s *Store) Carts() *CartRepository       { return &CartRepository{db: s.db} }
func (s *Store) Users() *UserRepository       { return &UserRepository{db: s.db} }

type tx struct {
	db *gorm.DB
}

func (t *tx) Orders() order.Repository     { return &OrderRepository{db: t.db} }
func (t *tx) Products() product.Repository { return &ProductRepository{db: t.db} }
func (t *tx) Inventory() inventory.Ledger  { return &Ledger{db: t.db} }

// WithinTx runs fn in a database transaction; fn's error rolls it back.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx uow.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(ctx, &tx{db: gtx})
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
