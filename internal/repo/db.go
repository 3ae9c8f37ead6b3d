// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping: driver
// selection (pure-Go SQLite for development, Postgres for the managed
// deployment), schema migration, and catalog seeding.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	otelgorm "gorm.io/plugin/opentelemetry/tracing"

	"github.com/autocrm/helpdesk-backend/internal/config"
	"github.com/autocrm/helpdesk-backend/internal/domain"
)

// Open opens the database selected by cfg and applies connection settings.
// When tracing is requested the GORM OpenTelemetry plugin is installed so
// queries show up as spans.
func Open(cfg config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DB.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{TranslateError: true})
	default:
		db, err = OpenSQLite(cfg.DB.Path)
	}
	if err != nil {
		return nil, err
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(otelgorm.NewPlugin(otelgorm.WithoutMetrics())); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if the parent directory does not exist (instead of a
	// cryptic sqlite "out of memory (14)" at first query).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every domain model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Organization{},
		&domain.User{},
		&domain.Employee{},
		&domain.Customer{},
		&domain.Team{},
		&domain.TicketStatus{},
		&domain.Ticket{},
		&domain.TicketStatusHistory{},
		&domain.Message{},
		&domain.Tag{},
		&domain.TicketField{},
		&domain.KnowledgeBaseArticle{},
		&domain.IdempotencyKey{},
	)
}

// defaultStatuses is the seeded status catalog. Customers see only the
// customer_access entries; the rest are internal.
var defaultStatuses = []domain.TicketStatus{
	{Status: domain.StatusNew, CustomerAccess: true},
	{Status: "Open", CustomerAccess: true},
	{Status: "Pending", CustomerAccess: true},
	{Status: "In Progress", CustomerAccess: false},
	{Status: "Escalated", CustomerAccess: false},
	{Status: domain.StatusResolved, CustomerAccess: true},
	{Status: domain.StatusClosed, CustomerAccess: true},
	{Status: domain.StatusClosedWillNotFix, CustomerAccess: false},
}

// Seed inserts the sentinel vendor organization and the default status
// catalog if they are not already present. It is idempotent.
func Seed(db *gorm.DB, globalOrgID string) error {
	org := domain.Organization{ID: globalOrgID, Name: domain.GlobalOrgName}
	if err := db.Where("id = ?", globalOrgID).FirstOrCreate(&org).Error; err != nil {
		return err
	}
	for _, s := range defaultStatuses {
		st := s
		if err := db.Where("status = ?", st.Status).FirstOrCreate(&st).Error; err != nil {
			return err
		}
	}
	return nil
}
