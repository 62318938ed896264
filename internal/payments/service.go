// Package payments consumes payment-processor events and finalizes orders.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/eddiefio/guestify-checkout/internal/kafka"
	"github.com/eddiefio/guestify-checkout/internal/order"
	"github.com/eddiefio/guestify-checkout/internal/redisx"
)

type OrderStore interface {
	MarkPaid(ctx context.Context, orderID, paymentRef string) error
	MarkFailed(ctx context.Context, orderID string) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Orders      OrderStore
	Redis       *redis.Client
	Producer    Publisher // publishes order.finalized
	ServiceName string
	Logger      *log.Logger
}

// HandlePaymentEvent is installed as the consumer handler for both payment
// topics. Returning an error leaves the offset uncommitted so the message is
// retried.
func (s *Service) HandlePaymentEvent(ctx context.Context, m kafkago.Message) error {
	var env order.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	switch env.EventType {
	case order.EventPaymentCaptured, order.EventPaymentFailed:
	default:
		return nil // ignore
	}

	// dedup by event_id; the cache is an optimization, not the truth
	var dkey string
	if s.Redis != nil {
		dkey = fmt.Sprintf(redisx.KeyDedup, "payments", env.EventID)
		exists, _ := redisx.Exists(ctx, s.Redis, dkey)
		if exists {
			return nil
		}
	}

	var err error
	if env.EventType == order.EventPaymentCaptured {
		var p order.PaymentCapturedPayload
		if p, err = kafkax.UnwrapPayload[order.PaymentCapturedPayload](env.Payload); err != nil {
			return err
		}
		err = s.captured(ctx, p, env.TraceID)
	} else {
		var p order.PaymentFailedPayload
		if p, err = kafkax.UnwrapPayload[order.PaymentFailedPayload](env.Payload); err != nil {
			return err
		}
		err = s.failed(ctx, p, env.TraceID)
	}
	if err != nil {
		return err
	}

	// mark the event processed only after success, so a transient failure can
	// be retried on redelivery; the guarded status UPDATE keeps a replay safe
	if dkey != "" {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	return nil
}

func (s *Service) captured(ctx context.Context, p order.PaymentCapturedPayload, trace string) error {
	if err := s.Orders.MarkPaid(ctx, p.OrderID, p.PaymentRef); err != nil {
		if errors.Is(err, order.ErrNotFound) || errors.Is(err, order.ErrConflict) {
			s.Logger.Printf("skip payment captured order=%s: %v", p.OrderID, err)
			return nil
		}
		return err
	}
	s.cacheStatus(ctx, p.OrderID, order.StatusCompleted)
	s.publishFinalized(p.OrderID, order.StatusCompleted, "", trace)
	return nil
}

func (s *Service) failed(ctx context.Context, p order.PaymentFailedPayload, trace string) error {
	if err := s.Orders.MarkFailed(ctx, p.OrderID); err != nil {
		if errors.Is(err, order.ErrNotFound) || errors.Is(err, order.ErrConflict) {
			s.Logger.Printf("skip payment failed order=%s: %v", p.OrderID, err)
			return nil
		}
		return err
	}
	s.cacheStatus(ctx, p.OrderID, order.StatusFailed)
	s.publishFinalized(p.OrderID, order.StatusFailed, p.Reason, trace)
	return nil
}

func (s *Service) cacheStatus(ctx context.Context, orderID string, st order.Status) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	body, _ := json.Marshal(map[string]any{"paymentStatus": st})
	_ = s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

func (s *Service) publishFinalized(orderID string, st order.Status, reason, trace string) {
	if s.Producer == nil {
		return
	}
	ev := order.Envelope{
		EventID:       uuid.NewString(),
		EventType:     order.EventOrderFinalized,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload: kafkax.MustMarshal(order.OrderFinalizedPayload{
			OrderID:     orderID,
			FinalStatus: string(st),
			Reason:      reason,
		}),
	}
	s.Producer.Publish(order.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(order.EventOrderFinalized)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
