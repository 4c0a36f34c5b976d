package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var transferCols = []string{"id", "reference", "from_card_id", "to_card_id", "user_id", "amount", "comment", "created_at"}

func TestTransferService_SaveTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewTransferService(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO transfers_history").
		WithArgs(sqlmock.AnyArg(), int64(1), int64(2), int64(3), sqlmock.AnyArg(), "rent").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(55), time.Now()))

	tx, err := db.Begin()
	assert.NoError(t, err)

	record, err := service.SaveTx(context.Background(), tx, 1, 2, 3, decimal.RequireFromString("600.00"), "rent")
	assert.NoError(t, err)
	assert.Equal(t, int64(55), record.ID)
	assert.Equal(t, "600.00", record.Amount.StringFixed(2))

	_, err = uuid.Parse(record.Reference)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferService_ListByCard(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewTransferService(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transfers_history WHERE from_card_id = \\$1 OR to_card_id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows(transferCols).
		AddRow(int64(55), uuid.NewString(), int64(7), int64(2), int64(3), "600.00", "rent", time.Now()).
		AddRow(int64(54), uuid.NewString(), int64(1), int64(7), int64(3), "20.50", "", time.Now().Add(-time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM transfers_history WHERE from_card_id = \\$1 OR to_card_id = \\$1 ORDER BY created_at DESC LIMIT \\$2 OFFSET \\$3").
		WithArgs(int64(7), 10, 0).
		WillReturnRows(rows)

	records, total, err := service.ListByCard(context.Background(), 7, 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, records, 2)
	assert.Equal(t, int64(7), records[0].FromCardID)
	assert.Equal(t, int64(7), records[1].ToCardID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferService_ListByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewTransferService(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transfers_history t JOIN users u ON t.user_id = u.id WHERE u.username = \\$1").
		WithArgs("ivan").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT (.+) FROM transfers_history t JOIN users u ON t.user_id = u.id WHERE u.username = \\$1 ORDER BY t.created_at DESC LIMIT \\$2 OFFSET \\$3").
		WithArgs("ivan", 10, 0).
		WillReturnRows(sqlmock.NewRows(transferCols).
			AddRow(int64(55), uuid.NewString(), int64(1), int64(2), int64(3), "600.00", "rent", time.Now()))

	records, total, err := service.ListByUsername(context.Background(), "ivan", 10, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, records, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
