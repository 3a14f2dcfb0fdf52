package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/tardieats/payments-relay/internal/gateway"
	kafkax "github.com/tardieats/payments-relay/internal/kafka"
	"github.com/tardieats/payments-relay/internal/metrics"
	"github.com/tardieats/payments-relay/internal/payments"
	"github.com/tardieats/payments-relay/internal/redisx"
)

// Request is the checkout body: the client's order draft plus the charge
// payload forwarded verbatim to the gateway.
type Request struct {
	Order  json.RawMessage `json:"order"`
	Charge json.RawMessage `json:"charge"`
}

// Receipt is all the caller gets back; the persisted records stay internal.
type Receipt struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Reference string `json:"reference"`
}

type Charger interface {
	CreateCharge(ctx context.Context, payload json.RawMessage) (gateway.ChargeData, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service charges the gateway, derives the transaction/order pair from the
// result and persists both atomically.
type Service struct {
	Gateway     Charger
	Store       payments.RecordStore
	Redis       *redis.Client // optional, best-effort status cache
	Producer    Publisher     // optional
	ServiceName string
}

func (s *Service) Checkout(ctx context.Context, req Request, traceID string) (Receipt, error) {
	result, err := s.Gateway.CreateCharge(ctx, req.Charge)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("gateway_error").Inc()
		return Receipt{}, err
	}

	txn, ord := BuildRecords(result, req.Order, time.Now().UTC())

	if err := s.Store.CreateBoth(ctx, txn, ord); err != nil {
		// The charge went through but recording it did not. Webhook
		// redelivery cannot repair a missing pair, so log everything a
		// manual reconciliation needs.
		log.Printf("checkout: charged but unrecorded reference=%s user=%s amount=%d: %v",
			txn.ID, txn.UserID, txn.Amount, err)
		metrics.CheckoutPersistFailures.Inc()
		metrics.CheckoutsTotal.WithLabelValues("store_error").Inc()
		return Receipt{}, fmt.Errorf("record checkout %s: %w", txn.ID, err)
	}

	s.cacheOrderStatus(ctx, ord.ID, ord.Status)
	s.publishRecorded(txn, ord, traceID)
	metrics.CheckoutsTotal.WithLabelValues("ok").Inc()

	return Receipt{Status: result.Status, Message: result.Message, Reference: result.Reference}, nil
}

// BuildRecords derives the transaction/order pair from a charge result. Both
// records take the gateway reference as primary key. The order keeps the
// client draft verbatim, starts out pending, and takes its user from the
// gateway metadata even when the draft claims one.
func BuildRecords(result gateway.ChargeData, draft json.RawMessage, now time.Time) (payments.Transaction, payments.Order) {
	if draft == nil {
		draft = json.RawMessage("{}")
	}
	txn := payments.Transaction{
		ID:              result.Reference,
		Amount:          result.Amount,
		TransactionDate: result.TransactionDate,
		Status:          payments.Status(result.Status),
		Reference:       result.Reference,
		Channel:         result.Channel,
		Message:         result.Message,
		Fees:            decimal.NewFromInt(result.Fees).Div(decimal.NewFromInt(100)),
		GatewayResponse: result.GatewayResponse,
		UserID:          result.Metadata.UserID,
		OrderID:         result.Reference,
	}
	ord := payments.Order{
		ID:             result.Reference,
		TransactionRef: result.Reference,
		Status:         payments.StatusPending,
		UserID:         result.Metadata.UserID,
		OrderDate:      result.TransactionDate,
		Date:           now,
		Draft:          draft,
	}
	return txn, ord
}

func (s *Service) cacheOrderStatus(ctx context.Context, id string, st payments.Status) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	_ = s.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, st), redisx.TTLStatusCache).Err()
}

func (s *Service) publishRecorded(txn payments.Transaction, ord payments.Order, traceID string) {
	if s.Producer == nil {
		return
	}
	ev := payments.Envelope{
		EventID:       uuid.NewString(),
		EventType:     payments.EventCheckoutRecorded,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: txn.ID,
		Payload: kafkax.MustMarshal(payments.CheckoutRecordedPayload{
			Reference:   txn.ID,
			Amount:      txn.Amount,
			UserID:      txn.UserID,
			OrderStatus: ord.Status,
		}),
	}
	s.Producer.Publish(payments.PartitionKey(txn.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(payments.EventCheckoutRecorded)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
