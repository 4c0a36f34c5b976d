package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/cardledger/backend/internal/audit"
	"github.com/cardledger/backend/internal/models"
)

// PaymentService moves money between two cards of the same owner. The whole
// operation is one SQL transaction: both card rows are locked in ascending id
// order (so two opposing transfers over the same pair cannot deadlock), the
// checks run against the locked rows, and the ledger row commits together
// with both balance updates or not at all.
type PaymentService struct {
	db        *sql.DB
	cards     *CardService
	transfers *TransferService
	audit     audit.Sink
}

func NewPaymentService(db *sql.DB, cards *CardService, transfers *TransferService, sink audit.Sink) *PaymentService {
	return &PaymentService{
		db:        db,
		cards:     cards,
		transfers: transfers,
		audit:     sink,
	}
}

// Transfer debits fromCardID and credits toCardID by amount. Both cards must
// belong to userID. BLOCKED and EXPIRED cards reject; PENDING_BLOCKED cards
// may still transfer until the block request is approved.
func (s *PaymentService) Transfer(ctx context.Context, fromCardID, toCardID int64, amount decimal.Decimal, comment string, userID int64) (*models.Card, *models.Card, error) {
	if fromCardID == toCardID {
		return nil, nil, fmt.Errorf("%w: card %d", models.ErrSameCardTransfer, fromCardID)
	}

	// The handler validates the amount; re-check so a bypassed boundary can
	// never drive a balance negative.
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrInvalidAmount, amount)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock in ascending card id order regardless of transfer direction.
	firstID, secondID := fromCardID, toCardID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}

	first, err := s.cards.LockByOwner(ctx, tx, firstID, userID)
	if err != nil {
		return nil, nil, err
	}
	second, err := s.cards.LockByOwner(ctx, tx, secondID, userID)
	if err != nil {
		return nil, nil, err
	}

	fromCard, toCard := first, second
	if firstID != fromCardID {
		fromCard, toCard = second, first
	}

	if err := checkEligibility(fromCard, toCard); err != nil {
		s.audit.OperationFailed("TRANSFER_MONEY", userID, err.Error())
		return nil, nil, err
	}

	if fromCard.Balance.LessThan(amount) {
		s.audit.OperationFailed("TRANSFER_MONEY", userID,
			fmt.Sprintf("insufficient funds on card %d", fromCard.ID))
		return nil, nil, fmt.Errorf("%w: card %d", models.ErrInsufficientFunds, fromCard.ID)
	}

	fromCard.Balance = fromCard.Balance.Sub(amount)
	toCard.Balance = toCard.Balance.Add(amount)

	record, err := s.transfers.SaveTx(ctx, tx, fromCard.ID, toCard.ID, userID, amount, comment)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record transfer: %w", err)
	}

	if err := updateBalance(ctx, tx, fromCard.ID, fromCard.Balance); err != nil {
		return nil, nil, err
	}
	if err := updateBalance(ctx, tx, toCard.ID, toCard.Balance); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	s.audit.TransferCompleted(userID, fromCard.ID, toCard.ID, amount, record.Reference)
	log.Printf("[PAYMENT] Transfer %s: card %d -> card %d, amount %s", record.Reference, fromCard.ID, toCard.ID, amount)

	return fromCard, toCard, nil
}

func checkEligibility(fromCard, toCard *models.Card) error {
	if fromCard.Status == models.CardStatusBlocked {
		return fmt.Errorf("%w: card %d is blocked for operation", models.ErrCardBlocked, fromCard.ID)
	}
	if toCard.Status == models.CardStatusBlocked {
		return fmt.Errorf("%w: card %d is blocked for operation", models.ErrCardBlocked, toCard.ID)
	}
	if fromCard.Status == models.CardStatusExpired {
		return fmt.Errorf("%w: card %d has expired", models.ErrCardBlocked, fromCard.ID)
	}
	if toCard.Status == models.CardStatusExpired {
		return fmt.Errorf("%w: card %d has expired", models.ErrCardBlocked, toCard.ID)
	}
	return nil
}

func updateBalance(ctx context.Context, tx *sql.Tx, cardID int64, balance decimal.Decimal) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE cards SET balance = $1, updated_at = NOW() WHERE id = $2`,
		balance, cardID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("balance update affected no rows for card %d", cardID)
	}
	return nil
}
