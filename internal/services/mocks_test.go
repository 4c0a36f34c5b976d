package services

import (
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"

	"github.com/cardledger/backend/internal/models"
)

func TestMain(m *testing.M) {
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("argon2.salt_length", 16)
	viper.Set("jwt.secret_key", "test-secret-key")
	viper.Set("jwt.access_expiry_minutes", 15)
	viper.Set("jwt.refresh_expiry_hours", 168)
	os.Exit(m.Run())
}

type MockCipher struct {
	mock.Mock
}

func (m *MockCipher) Encrypt(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockCipher) Decrypt(ciphertext string) (string, error) {
	args := m.Called(ciphertext)
	return args.String(0), args.Error(1)
}

func (m *MockCipher) Hash(plaintext string) string {
	args := m.Called(plaintext)
	return args.String(0)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) TransferCompleted(userID, fromCardID, toCardID int64, amount decimal.Decimal, reference string) {
	m.Called(userID, fromCardID, toCardID, amount, reference)
}

func (m *MockSink) BlockRequested(userID, cardID, requestID int64) {
	m.Called(userID, cardID, requestID)
}

func (m *MockSink) BlockProcessed(adminID, requestID, cardID int64, decision string) {
	m.Called(adminID, requestID, cardID, decision)
}

func (m *MockSink) OperationFailed(action string, userID int64, reason string) {
	m.Called(action, userID, reason)
}

var cardCols = []string{"id", "encrypted_number", "search_hash", "first8", "last4", "validity_period", "status_card", "balance", "user_id", "created_at", "updated_at"}

func cardRow(id int64, status models.CardStatus, balance string, userID int64) *sqlmock.Rows {
	return sqlmock.NewRows(cardCols).
		AddRow(id, "encrypted", "hash", "40000012", "1234", time.Now().AddDate(3, 0, 0), status, balance, userID, time.Now(), time.Now())
}

var blockRequestCols = []string{"id", "card_id", "user_id", "reason", "block_request_status", "processed_by", "processed_at", "created_at"}

var userCols = []string{"id", "username", "password", "role", "account_enable", "account_locked", "created_at"}

func userRow(id int64, username, password string, role models.UserRole) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(id, username, password, role, true, false, time.Now())
}
