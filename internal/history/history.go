// Package history keeps a SQLite catalog of persisted workflow runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/v0xg/uiscout/internal/workflow"
)

const (
	defaultLimit = 20
	maxLimit     = 1000
)

// RunRecord is one persisted run.
type RunRecord struct {
	// ID is the run id assigned by the orchestrator.
	ID          string    `gorm:"primaryKey;size:36"`
	Goal        string    `gorm:"type:text;not null"`
	EntryURL    string    `gorm:"type:text;not null"`
	Dir         string    `gorm:"type:text;not null"`
	States      int       `gorm:"not null"`
	Questions   int       `gorm:"not null"`
	GoalReached bool      `gorm:"not null;default:false"`
	StartedAt   time.Time `gorm:"not null;index"`
	FinishedAt  time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
}

// FromWorkflow builds the catalog record of a persisted workflow.
func FromWorkflow(wf *workflow.Workflow) *RunRecord {
	return &RunRecord{
		ID:          wf.ID.String(),
		Goal:        wf.Goal,
		EntryURL:    wf.EntryURL,
		Dir:         wf.Dir,
		States:      len(wf.Turns),
		Questions:   len(wf.Executed),
		GoalReached: wf.GoalReached,
		StartedAt:   wf.StartedAt.UTC(),
		FinishedAt:  wf.FinishedAt.UTC(),
	}
}

// Config configures the catalog database.
type Config struct {
	Path        string
	BusyTimeout time.Duration
	// Logger overrides the silent gorm logger.
	Logger logger.Interface
}

// Catalog is the run catalog.
type Catalog struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Open opens (creating if needed) the catalog at cfg.Path and migrates it.
func Open(ctx context.Context, cfg Config) (*Catalog, error) {
	if cfg.Path == "" {
		return nil, errors.New("history: database path is required")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	gormLogger := cfg.Logger
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	c := &Catalog{db: db, sqlDB: sqlDB}
	if err := c.db.WithContext(ctx).AutoMigrate(&RunRecord{}); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return c, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	if c == nil || c.sqlDB == nil {
		return nil
	}
	return c.sqlDB.Close()
}

// Record inserts or replaces rec.
func (c *Catalog) Record(ctx context.Context, rec *RunRecord) error {
	if rec == nil || rec.ID == "" {
		return errors.New("history: record needs an id")
	}
	if err := c.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// List returns the most recent runs first. A non-positive limit uses the
// default.
func (c *Catalog) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	var out []RunRecord
	if err := c.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}
