package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// background writes: a request-scoped context must not abort a flush.
var writeCtx = context.Background()

// Producer wraps a kafka writer behind a buffered inbox so callers never
// block on the broker. Messages still in flight are flushed on shutdown.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start launches the flush loop. It runs until Close is called; everything
// still in the inbox at that point is written before WaitClosed unblocks.
func (p *Producer) Start() {
	go func() {
		for m := range p.inbox {
			_ = p.w.WriteMessages(writeCtx, m)
		}
		_ = p.w.Close()
		close(p.closeCh)
	}()
}

func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.inbox <- kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// Close closes the inbox so the loop flushes remaining messages and exits.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the flush loop has finished.
func (p *Producer) WaitClosed() { <-p.closeCh }
