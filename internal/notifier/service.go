package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/verkstad/shop-orders/internal/kafka"
	"github.com/verkstad/shop-orders/internal/redisx"
	"github.com/verkstad/shop-orders/internal/shop"
)

// Sender delivers a customer-facing message. The concrete transport (mail
// provider) is owned by ops; LogSender stands in for local runs.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type LogSender struct{ Logger *zap.Logger }

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Logger.Info("notification sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}

// Service consumes order lifecycle events and sends confirmations. A failed
// send returns an error so the message is retried; duplicates are filtered
// per event id.
type Service struct {
	Redis  *redis.Client
	Sender Sender
	Logger *zap.Logger
}

func (s *Service) HandleOrderPaid(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shop.EventOrderPaid {
		return nil
	}
	if s.seen(ctx, env.EventID) {
		return nil
	}

	p, err := kafkax.UnwrapPayload[shop.OrderPaidPayload](env.Payload)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Order %s confirmed", p.Number)
	body := fmt.Sprintf("Thank you! Your payment of %d was received and order %s is confirmed.", p.Amount, p.Number)
	if err := s.Sender.Send(ctx, p.Email, subject, body); err != nil {
		return err
	}
	s.mark(ctx, env.EventID)
	return nil
}

func (s *Service) HandlePaymentFailed(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shop.EventOrderPaymentFailed {
		return nil
	}
	if s.seen(ctx, env.EventID) {
		return nil
	}

	p, err := kafkax.UnwrapPayload[shop.OrderPaymentFailedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.Reason == "INITIATION_FAILED" {
		// ops alert, not a customer mail: the order is committed but has no
		// payment request behind it
		s.Logger.Error("order awaiting manual payment reconciliation",
			zap.String("order_id", p.OrderID),
			zap.String("order_number", p.Number))
		s.mark(ctx, env.EventID)
		return nil
	}
	if p.Email != "" {
		subject := fmt.Sprintf("Order %s was not completed", p.Number)
		body := fmt.Sprintf("Your payment for order %s did not complete (%s). The reserved items have been released.", p.Number, p.Reason)
		if err := s.Sender.Send(ctx, p.Email, subject, body); err != nil {
			return err
		}
	}
	s.mark(ctx, env.EventID)
	return nil
}

func (s *Service) seen(ctx context.Context, eventID string) bool {
	if s.Redis == nil {
		return false
	}
	ok, _ := redisx.Exists(ctx, s.Redis, fmt.Sprintf(redisx.KeyDedup, "notifier", eventID))
	return ok
}

func (s *Service) mark(ctx context.Context, eventID string) {
	if s.Redis == nil {
		return
	}
	_ = s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyDedup, "notifier", eventID), "1", redisx.TTLDedup).Err()
}
