package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/tardieats/payments-relay/internal/kafka"
	"github.com/tardieats/payments-relay/internal/metrics"
	"github.com/tardieats/payments-relay/internal/payments"
	"github.com/tardieats/payments-relay/internal/redisx"
)

// EventChargeSuccess is the only gateway event this service acts on.
const EventChargeSuccess = "charge.success"

// Event is the gateway's webhook envelope. Fields beyond status and reference
// are ignored.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service applies asynchronous gateway confirmations to the stored pair.
type Service struct {
	Store       payments.RecordStore
	Redis       *redis.Client // optional, best-effort status cache
	Producer    Publisher     // optional
	ServiceName string
}

// Apply reconciles one webhook delivery. Deliveries other than charge.success
// are acknowledged untouched (applied=false). A failed update is returned to
// the caller so the gateway's redelivery machinery retries it.
func (s *Service) Apply(ctx context.Context, ev Event) (applied bool, err error) {
	if ev.Event != EventChargeSuccess {
		metrics.WebhookEventsTotal.WithLabelValues("ignored").Inc()
		return false, nil
	}

	txnStatus, ordStatus := payments.ReconcileStatuses(ev.Data.Status)
	if err := s.Store.UpdateBoth(ctx, ev.Data.Reference, txnStatus, ordStatus); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("reconcile %s: %w", ev.Data.Reference, err)
	}

	s.cacheOrderStatus(ctx, ev.Data.Reference, ordStatus)
	s.publishReconciled(ev.Data.Reference, txnStatus, ordStatus)
	metrics.WebhookEventsTotal.WithLabelValues("reconciled").Inc()
	return true, nil
}

func (s *Service) cacheOrderStatus(ctx context.Context, id string, st payments.Status) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, id)
	_ = s.Redis.Set(ctx, key, fmt.Sprintf(`{"status":%q}`, st), redisx.TTLStatusCache).Err()
}

func (s *Service) publishReconciled(reference string, txnStatus, ordStatus payments.Status) {
	if s.Producer == nil {
		return
	}
	ev := payments.Envelope{
		EventID:       uuid.NewString(),
		EventType:     payments.EventPaymentReconciled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: reference,
		Payload: kafkax.MustMarshal(payments.PaymentReconciledPayload{
			Reference:         reference,
			TransactionStatus: txnStatus,
			OrderStatus:       ordStatus,
		}),
	}
	s.Producer.Publish(payments.PartitionKey(reference), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(payments.EventPaymentReconciled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
