package audit

import (
	"bytes"
	"log"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(orig)
	fn()
	return buf.String()
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink()

	t.Run("transfer completed", func(t *testing.T) {
		out := captureLog(t, func() {
			sink.TransferCompleted(3, 1, 2, decimal.RequireFromString("600.00"), "ref-1")
		})
		assert.Contains(t, out, "AUDIT:")
		assert.Contains(t, out, `"action":"TRANSFER_MONEY"`)
		assert.Contains(t, out, `"result":"SUCCESS"`)
		assert.Contains(t, out, `"user_id":3`)
		assert.Contains(t, out, `"amount":"600.00"`)
		assert.Contains(t, out, `"reference":"ref-1"`)
	})

	t.Run("block requested", func(t *testing.T) {
		out := captureLog(t, func() {
			sink.BlockRequested(3, 7, 21)
		})
		assert.Contains(t, out, `"action":"CREATE_BLOCK_REQUEST"`)
		assert.Contains(t, out, `"request_id":21`)
	})

	t.Run("block processed", func(t *testing.T) {
		out := captureLog(t, func() {
			sink.BlockProcessed(1, 21, 7, "APPROVED")
		})
		assert.Contains(t, out, `"action":"PROCESS_BLOCK_REQUEST"`)
		assert.Contains(t, out, `"decision":"APPROVED"`)
	})

	t.Run("operation failed", func(t *testing.T) {
		out := captureLog(t, func() {
			sink.OperationFailed("TRANSFER_MONEY", 3, "insufficient funds on card 1")
		})
		assert.Contains(t, out, `"result":"FAILURE"`)
		assert.Contains(t, out, `"reason":"insufficient funds on card 1"`)
	})
}
