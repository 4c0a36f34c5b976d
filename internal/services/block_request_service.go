package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cardledger/backend/internal/audit"
	"github.com/cardledger/backend/internal/models"
)

const blockRequestColumns = `id, card_id, user_id, reason, block_request_status, processed_by, processed_at, created_at`

// BlockRequestService runs the card-block workflow: an owner files a request
// (the card moves to PENDING_BLOCKED), an admin approves (card BLOCKED) or
// rejects (card back to ACTIVE). Request update and card transition always
// commit in one transaction so the pair can never diverge.
type BlockRequestService struct {
	db    *sql.DB
	cards *CardService
	users *UserService
	audit audit.Sink
}

func NewBlockRequestService(db *sql.DB, cards *CardService, users *UserService, sink audit.Sink) *BlockRequestService {
	return &BlockRequestService{
		db:    db,
		cards: cards,
		users: users,
		audit: sink,
	}
}

func scanBlockRequest(row scanner) (*models.BlockRequest, error) {
	var req models.BlockRequest
	err := row.Scan(
		&req.ID, &req.CardID, &req.RequesterID, &req.Reason, &req.Status,
		&req.ProcessedBy, &req.ProcessedAt, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create files a block request for a card owned by userID and moves the card
// to PENDING_BLOCKED. An already BLOCKED card rejects; a card that is
// already PENDING_BLOCKED may collect further requests, and the admin
// decision resolves them all the same way.
func (s *BlockRequestService) Create(ctx context.Context, cardID int64, reason string, userID int64) (*models.BlockRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	card, err := s.cards.LockByOwner(ctx, tx, cardID, userID)
	if err != nil {
		return nil, err
	}

	if card.Status == models.CardStatusBlocked {
		s.audit.OperationFailed("CREATE_BLOCK_REQUEST", userID,
			fmt.Sprintf("card %d already blocked", card.ID))
		return nil, fmt.Errorf("%w: cannot block an inactive card", models.ErrCardBlocked)
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO card_block_requests (card_id, user_id, reason, block_request_status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING `+blockRequestColumns,
		card.ID, card.UserID, reason, models.BlockRequestPending)

	request, err := scanBlockRequest(row)
	if err != nil {
		return nil, err
	}

	if _, err := s.cards.UpdateStatusTx(ctx, tx, card.ID, models.CardStatusPendingBlocked); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit block request: %w", err)
	}

	s.audit.BlockRequested(userID, card.ID, request.ID)
	log.Printf("[BLOCK_REQUEST] Request %d created for card %d by user %d", request.ID, card.ID, userID)

	return request, nil
}

// Process applies an admin decision. APPROVED blocks the card, REJECTED
// restores it to ACTIVE; either way the request gets its terminal status,
// the processing admin and the processing time in the same transaction as
// the card transition.
func (s *BlockRequestService) Process(ctx context.Context, requestID int64, decision models.BlockRequestStatus, adminID int64) (*models.BlockRequest, error) {
	if !decision.Decision() {
		return nil, fmt.Errorf("illegal block request decision: %s", decision)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+blockRequestColumns+` FROM card_block_requests WHERE id = $1 FOR UPDATE`, requestID)

	request, err := scanBlockRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: request %d", models.ErrBlockRequestNotFound, requestID)
	}
	if err != nil {
		return nil, err
	}

	admin, err := s.users.FindByID(ctx, adminID)
	if err != nil {
		return nil, err
	}

	cardStatus := models.CardStatusBlocked
	if decision == models.BlockRequestRejected {
		cardStatus = models.CardStatusActive
	}
	if _, err := s.cards.UpdateStatusTx(ctx, tx, request.CardID, cardStatus); err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE card_block_requests
		SET block_request_status = $1, processed_by = $2, processed_at = NOW()
		WHERE id = $3
		RETURNING processed_at`,
		decision, admin.ID, request.ID).Scan(&request.ProcessedAt)
	if err != nil {
		return nil, err
	}
	request.Status = decision
	request.ProcessedBy = &admin.ID

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit block request decision: %w", err)
	}

	s.audit.BlockProcessed(adminID, request.ID, request.CardID, string(decision))
	log.Printf("[BLOCK_REQUEST] Request %d processed by admin %d: %s", request.ID, adminID, decision)

	return request, nil
}

// FindByID returns the request or ErrBlockRequestNotFound.
func (s *BlockRequestService) FindByID(ctx context.Context, requestID int64) (*models.BlockRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+blockRequestColumns+` FROM card_block_requests WHERE id = $1`, requestID)

	request, err := scanBlockRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: request %d", models.ErrBlockRequestNotFound, requestID)
	}
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ListByProcessor returns one page of requests handled by the given admin.
func (s *BlockRequestService) ListByProcessor(ctx context.Context, adminID int64, limit, offset int) ([]models.BlockRequest, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM card_block_requests WHERE processed_by = $1`, adminID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+blockRequestColumns+` FROM card_block_requests WHERE processed_by = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		adminID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests, err := collectBlockRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// Search applies the admin filter; non-nil fields combine conjunctively.
func (s *BlockRequestService) Search(ctx context.Context, filter models.BlockRequestFilter, limit, offset int) ([]models.BlockRequest, int64, error) {
	var conditions []string
	var args []any
	argIndex := 1

	addCondition := func(cond string, value any) {
		conditions = append(conditions, fmt.Sprintf(cond, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.Status != nil {
		addCondition("r.block_request_status = $%d", *filter.Status)
	}
	if filter.Processed != nil {
		if *filter.Processed {
			conditions = append(conditions, "r.processed_at IS NOT NULL")
		} else {
			conditions = append(conditions, "r.processed_at IS NULL")
		}
	}
	if filter.RequesterID != nil {
		addCondition("r.user_id = $%d", *filter.RequesterID)
	}
	if filter.RequesterUsername != nil {
		addCondition("LOWER(u.username) LIKE $%d", "%"+strings.ToLower(strings.TrimSpace(*filter.RequesterUsername))+"%")
	}
	if filter.ProcessedByID != nil {
		addCondition("r.processed_by = $%d", *filter.ProcessedByID)
	}
	if filter.ReasonContains != nil {
		addCondition("LOWER(r.reason) LIKE $%d", "%"+strings.ToLower(strings.TrimSpace(*filter.ReasonContains))+"%")
	}
	if filter.CreatedFrom != nil {
		addCondition("r.created_at >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addCondition("r.created_at <= $%d", *filter.CreatedTo)
	}
	if filter.ProcessedFrom != nil {
		addCondition("r.processed_at >= $%d", *filter.ProcessedFrom)
	}
	if filter.ProcessedTo != nil {
		addCondition("r.processed_at <= $%d", *filter.ProcessedTo)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	base := ` FROM card_block_requests r JOIN users u ON r.user_id = u.id` + where

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT r.id, r.card_id, r.user_id, r.reason, r.block_request_status, r.processed_by, r.processed_at, r.created_at` +
		base + fmt.Sprintf(" ORDER BY r.id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests, err := collectBlockRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func collectBlockRequests(rows *sql.Rows) ([]models.BlockRequest, error) {
	requests := []models.BlockRequest{}
	for rows.Next() {
		request, err := scanBlockRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}
