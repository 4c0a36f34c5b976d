package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// Sink receives domain events from the engines. The engines never write
// audit lines themselves; an implementation renders events to logs, metrics
// or wherever operations wants them.
type Sink interface {
	TransferCompleted(userID, fromCardID, toCardID int64, amount decimal.Decimal, reference string)
	BlockRequested(userID, cardID, requestID int64)
	BlockProcessed(adminID, requestID, cardID int64, decision string)
	OperationFailed(action string, userID int64, reason string)
}

type event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Result    string    `json:"result"`
	UserID    int64     `json:"user_id"`
	Details   any       `json:"details,omitempty"`
}

// LogSink writes events as JSON lines through the standard logger.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) TransferCompleted(userID, fromCardID, toCardID int64, amount decimal.Decimal, reference string) {
	s.log(event{
		Timestamp: time.Now(),
		Action:    "TRANSFER_MONEY",
		Result:    "SUCCESS",
		UserID:    userID,
		Details: map[string]any{
			"from_card_id": fromCardID,
			"to_card_id":   toCardID,
			"amount":       amount.String(),
			"reference":    reference,
		},
	})
}

func (s *LogSink) BlockRequested(userID, cardID, requestID int64) {
	s.log(event{
		Timestamp: time.Now(),
		Action:    "CREATE_BLOCK_REQUEST",
		Result:    "SUCCESS",
		UserID:    userID,
		Details: map[string]any{
			"card_id":    cardID,
			"request_id": requestID,
		},
	})
}

func (s *LogSink) BlockProcessed(adminID, requestID, cardID int64, decision string) {
	s.log(event{
		Timestamp: time.Now(),
		Action:    "PROCESS_BLOCK_REQUEST",
		Result:    "SUCCESS",
		UserID:    adminID,
		Details: map[string]any{
			"request_id": requestID,
			"card_id":    cardID,
			"decision":   decision,
		},
	})
}

func (s *LogSink) OperationFailed(action string, userID int64, reason string) {
	s.log(event{
		Timestamp: time.Now(),
		Action:    action,
		Result:    "FAILURE",
		UserID:    userID,
		Details:   map[string]string{"reason": reason},
	})
}

func (s *LogSink) log(ev event) {
	data, _ := json.Marshal(ev)
	log.Printf("AUDIT: %s", string(data))
}
