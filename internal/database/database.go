package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

// New opens the database and migrates the schema. A postgres:// DSN selects
// PostgreSQL, anything else is treated as a SQLite file path.
func New(dbPath string) (*Database, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Database connected (PostgreSQL)")
	} else {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("Database initialized (SQLite)")
	}

	// Auto migrate all models
	if err := db.AutoMigrate(
		&Franchise{},
		&Team{},
		&Game{},
		&MatchupSample{},
		&MatchupStats{},
		&EdgeAssessment{},
		&OrderRecord{},
		&JobRun{},
	); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// NewInMemory opens a throwaway SQLite database, used by tests. Each call
// gets its own named in-memory database so parallel tests stay isolated.
func NewInMemory() (*Database, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&Franchise{},
		&Team{},
		&Game{},
		&MatchupSample{},
		&MatchupStats{},
		&EdgeAssessment{},
		&OrderRecord{},
		&JobRun{},
	); err != nil {
		return nil, err
	}
	return &Database{db: db}, nil
}
