package payments

import (
	"encoding/json"
	"time"
)

const (
	EventCheckoutRecorded  = "CheckoutRecorded"
	EventPaymentReconciled = "PaymentReconciled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "payments-relay"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // gateway reference
	Payload       json.RawMessage `json:"payload"`
}

// ---- payload types per event ----

type CheckoutRecordedPayload struct {
	Reference   string `json:"reference"`
	Amount      int64  `json:"amount"`
	UserID      string `json:"user_id"`
	OrderStatus Status `json:"order_status"`
}

type PaymentReconciledPayload struct {
	Reference         string `json:"reference"`
	TransactionStatus Status `json:"transaction_status"`
	OrderStatus       Status `json:"order_status"`
}
