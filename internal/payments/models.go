package payments

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction mirrors one charge attempt at the gateway. The gateway
// reference is the primary key and doubles as the key of the sibling Order.
type Transaction struct {
	ID              string          `json:"id"`
	Amount          int64           `json:"amount"` // minor currency units, as reported
	TransactionDate string          `json:"transaction_date"`
	Status          Status          `json:"status"`
	Reference       string          `json:"reference"`
	Channel         string          `json:"channel"`
	Message         string          `json:"message"`
	Fees            decimal.Decimal `json:"fees"` // major units (gateway reports minor)
	GatewayResponse string          `json:"gateway_response"`
	UserID          string          `json:"user_id"`
	OrderID         string          `json:"order_id"`
}

// Order carries the client-submitted draft verbatim plus the fields derived
// from the charge result. Draft is never inspected, only stored.
type Order struct {
	ID             string          `json:"id"`
	TransactionRef string          `json:"transaction_ref"`
	Status         Status          `json:"status"`
	UserID         string          `json:"user_id"`
	OrderDate      string          `json:"order_date"`
	Date           time.Time       `json:"date"`
	Draft          json.RawMessage `json:"draft"`
}
