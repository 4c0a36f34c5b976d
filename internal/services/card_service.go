package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/cardledger/backend/internal/crypto"
	"github.com/cardledger/backend/internal/models"
)

const cardColumns = `id, encrypted_number, search_hash, first8, last4, validity_period, status_card, balance, user_id, created_at, updated_at`

// CardService is the card directory: create, lookup (by id, owner, number
// hash), status transitions and deletion. It enforces number uniqueness
// through the deterministic search hash; transition legality between
// statuses is the calling engine's responsibility.
type CardService struct {
	db     *sql.DB
	cipher crypto.Cipher
	users  *UserService
}

func NewCardService(db *sql.DB, cipher crypto.Cipher, users *UserService) *CardService {
	return &CardService{
		db:     db,
		cipher: cipher,
		users:  users,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (*models.Card, error) {
	var card models.Card
	err := row.Scan(
		&card.ID, &card.EncryptedNumber, &card.SearchHash, &card.First8, &card.Last4,
		&card.ValidityPeriod, &card.Status, &card.Balance, &card.UserID,
		&card.CreatedAt, &card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// FindByID returns the card or ErrCardNotFound.
func (s *CardService) FindByID(ctx context.Context, cardID int64) (*models.Card, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1`, cardID)

	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %d", models.ErrCardNotFound, cardID)
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// FindByOwnerAndID returns the card only when it belongs to userID. A card
// owned by someone else is indistinguishable from a missing card.
func (s *CardService) FindByOwnerAndID(ctx context.Context, cardID, userID int64) (*models.Card, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1 AND user_id = $2`, cardID, userID)

	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %d for user %d", models.ErrCardNotFound, cardID, userID)
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// LockByOwner resolves an owner-scoped card inside tx with a row write lock.
// The engines use it so balance and status mutations against the same card
// serialize.
func (s *CardService) LockByOwner(ctx context.Context, tx *sql.Tx, cardID, userID int64) (*models.Card, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1 AND user_id = $2 FOR UPDATE`, cardID, userID)

	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %d for user %d", models.ErrCardNotFound, cardID, userID)
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// FindByNumber locates a card by its raw number through the search hash.
func (s *CardService) FindByNumber(ctx context.Context, rawNumber string) (*models.Card, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE search_hash = $1`, s.cipher.Hash(rawNumber))

	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %s", models.ErrCardNotFound, crypto.Mask(rawNumber))
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// ExistsByNumber reports whether a card with this number is already issued.
func (s *CardService) ExistsByNumber(ctx context.Context, rawNumber string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM cards WHERE search_hash = $1)`, s.cipher.Hash(rawNumber)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create issues a card for userID: owner must exist, the number hash must be
// new. The row starts ACTIVE with zero balance.
func (s *CardService) Create(ctx context.Context, userID int64, rawNumber string, validity time.Time) (*models.Card, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	exists, err := s.ExistsByNumber(ctx, rawNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", models.ErrCardDuplicate, crypto.Mask(rawNumber))
	}

	searchHash := s.cipher.Hash(rawNumber)

	encrypted, err := s.cipher.Encrypt(rawNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO cards (encrypted_number, search_hash, first8, last4, validity_period, status_card, balance, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, NOW(), NOW())
		RETURNING `+cardColumns,
		encrypted, searchHash, crypto.First8(rawNumber), crypto.Last4(rawNumber),
		validity, models.CardStatusActive, userID)

	card, err := scanCard(row)
	if err != nil {
		// The unique index on search_hash closes the check-then-insert race.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %s", models.ErrCardDuplicate, crypto.Mask(rawNumber))
		}
		return nil, err
	}

	log.Printf("[CARD] Issued card %d for user %d (%s)", card.ID, userID, crypto.Mask(rawNumber))
	return card, nil
}

// UpdateStatus overwrites the card status unconditionally.
func (s *CardService) UpdateStatus(ctx context.Context, cardID int64, status models.CardStatus) (*models.Card, error) {
	return updateCardStatus(ctx, s.db, cardID, status)
}

// UpdateStatusTx is UpdateStatus inside a caller-owned transaction; the
// engines use it so the status change commits with the rest of their work.
func (s *CardService) UpdateStatusTx(ctx context.Context, tx *sql.Tx, cardID int64, status models.CardStatus) (*models.Card, error) {
	return updateCardStatus(ctx, tx, cardID, status)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func updateCardStatus(ctx context.Context, q rowQuerier, cardID int64, status models.CardStatus) (*models.Card, error) {
	row := q.QueryRowContext(ctx, `
		UPDATE cards SET status_card = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+cardColumns,
		status, cardID)

	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %d", models.ErrCardNotFound, cardID)
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Delete removes a card by id.
func (s *CardService) Delete(ctx context.Context, cardID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, cardID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: card %d", models.ErrCardNotFound, cardID)
	}
	return nil
}

// DeleteByNumber removes a card located through the search hash.
func (s *CardService) DeleteByNumber(ctx context.Context, rawNumber string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE search_hash = $1`, s.cipher.Hash(rawNumber))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: card %s", models.ErrCardNotFound, crypto.Mask(rawNumber))
	}
	return nil
}

// ListByUser returns one page of a user's cards plus the total count.
func (s *CardService) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Card, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// ListByUsername returns one page of cards owned by the named user.
func (s *CardService) ListByUsername(ctx context.Context, username string, limit, offset int) ([]models.Card, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cards c
		JOIN users u ON c.user_id = u.id
		WHERE u.username = $1`, username).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.encrypted_number, c.search_hash, c.first8, c.last4, c.validity_period, c.status_card, c.balance, c.user_id, c.created_at, c.updated_at
		FROM cards c
		JOIN users u ON c.user_id = u.id
		WHERE u.username = $1
		ORDER BY c.id LIMIT $2 OFFSET $3`,
		username, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// Search applies the admin filter. Non-nil fields combine conjunctively; the
// full number is matched through its hash so plaintext never reaches SQL.
func (s *CardService) Search(ctx context.Context, filter models.CardSearchFilter, limit, offset int) ([]models.Card, int64, error) {
	var conditions []string
	var args []any
	argIndex := 1

	addCondition := func(cond string, value any) {
		conditions = append(conditions, fmt.Sprintf(cond, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.UserID != nil {
		addCondition("user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		addCondition("status_card = $%d", *filter.Status)
	}
	if filter.FullNumber != nil {
		addCondition("search_hash = $%d", s.cipher.Hash(*filter.FullNumber))
	}
	if filter.First8Number != nil {
		addCondition("first8 LIKE $%d", *filter.First8Number+"%")
	}
	if filter.Last4Number != nil {
		addCondition("last4 LIKE $%d", "%"+*filter.Last4Number)
	}
	if filter.ValidFrom != nil {
		addCondition("validity_period >= $%d", *filter.ValidFrom)
	}
	if filter.ValidTo != nil {
		addCondition("validity_period <= $%d", *filter.ValidTo)
	}
	if filter.BalanceMin != nil {
		addCondition("balance >= $%d", *filter.BalanceMin)
	}
	if filter.BalanceMax != nil {
		addCondition("balance <= $%d", *filter.BalanceMax)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + cardColumns + ` FROM cards` + where +
		fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// DecryptNumber recovers the plaintext number of a card for display.
func (s *CardService) DecryptNumber(card *models.Card) (string, error) {
	return s.cipher.Decrypt(card.EncryptedNumber)
}

func collectCards(rows *sql.Rows) ([]models.Card, error) {
	cards := []models.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}
