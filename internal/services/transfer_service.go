package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardledger/backend/internal/models"
)

const transferColumns = `id, reference, from_card_id, to_card_id, user_id, amount, comment, created_at`

// TransferService owns the append-only transfer ledger. Writes happen only
// through SaveTx inside the payment transaction; rows are never updated or
// deleted.
type TransferService struct {
	db *sql.DB
}

func NewTransferService(db *sql.DB) *TransferService {
	return &TransferService{db: db}
}

// SaveTx appends one ledger row inside the caller's transaction.
func (s *TransferService) SaveTx(ctx context.Context, tx *sql.Tx, fromCardID, toCardID, userID int64, amount decimal.Decimal, comment string) (*models.TransferRecord, error) {
	record := models.TransferRecord{
		Reference:  uuid.NewString(),
		FromCardID: fromCardID,
		ToCardID:   toCardID,
		UserID:     userID,
		Amount:     amount,
		Comment:    comment,
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO transfers_history (reference, from_card_id, to_card_id, user_id, amount, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`,
		record.Reference, record.FromCardID, record.ToCardID, record.UserID, record.Amount, record.Comment,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUsername returns one page of a user's transfer history, newest first.
func (s *TransferService) ListByUsername(ctx context.Context, username string, limit, offset int) ([]models.TransferRecord, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transfers_history t
		JOIN users u ON t.user_id = u.id
		WHERE u.username = $1`, username).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.reference, t.from_card_id, t.to_card_id, t.user_id, t.amount, t.comment, t.created_at
		FROM transfers_history t
		JOIN users u ON t.user_id = u.id
		WHERE u.username = $1
		ORDER BY t.created_at DESC LIMIT $2 OFFSET $3`,
		username, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := collectTransfers(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListByCard returns transfers touching the card on either side.
func (s *TransferService) ListByCard(ctx context.Context, cardID int64, limit, offset int) ([]models.TransferRecord, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transfers_history
		WHERE from_card_id = $1 OR to_card_id = $1`, cardID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transferColumns+` FROM transfers_history
		WHERE from_card_id = $1 OR to_card_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		cardID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := collectTransfers(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func collectTransfers(rows *sql.Rows) ([]models.TransferRecord, error) {
	records := []models.TransferRecord{}
	for rows.Next() {
		var r models.TransferRecord
		err := rows.Scan(&r.ID, &r.Reference, &r.FromCardID, &r.ToCardID, &r.UserID, &r.Amount, &r.Comment, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
