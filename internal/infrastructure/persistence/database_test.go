package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rentalworks/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock
}

func TestDatabasePing(t *testing.T) {
	db, mock := newMockDatabase(t)
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, db.Ping())
}

func TestDatabaseStats(t *testing.T) {
	db, _ := newMockDatabase(t)
	defer db.Close()

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.GreaterOrEqual(t, stats.MaxOpenConnections, 0)
}

func TestDatabaseClose(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectClose()
	assert.NoError(t, db.Close())
}

func TestDatabaseTransaction(t *testing.T) {
	db, mock := newMockDatabase(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := db.Transaction(func(tx *gorm.DB) error {
		return nil
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseDSNFromConfig(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "rental",
		Password: "p@ss/word",
		DBName:   "rentalworks",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters in credentials must be escaped
	assert.NotContains(t, dsn, "p@ss/word")
}
