package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

// On postgres the allocator must read the current maximum under a row
// lock so concurrent creators on the same prefix serialize.
func TestLockedNumberAllocator_LocksOnPostgres(t *testing.T) {
	db, mock := newMockDB(t)
	allocator := NewLockedNumberAllocator(db)

	mock.ExpectQuery(`SELECT "order_number" FROM "orders" WHERE order_number LIKE \$1 ORDER BY order_number DESC LIMIT \$2 FOR UPDATE`).
		WithArgs("SO-20260829-%", 1).
		WillReturnRows(sqlmock.NewRows([]string{"order_number"}).AddRow("SO-20260829-00041"))

	number, err := allocator.Next(context.Background(), "SO-20260829")
	require.NoError(t, err)
	assert.Equal(t, "SO-20260829-00042", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockedNumberAllocator_RejectsMalformedNumbers(t *testing.T) {
	db, mock := newMockDB(t)
	allocator := NewLockedNumberAllocator(db)

	mock.ExpectQuery(`SELECT "order_number" FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"order_number"}).AddRow("SO-20260829-junk"))

	_, err := allocator.Next(context.Background(), "SO-20260829")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed order number")
}
