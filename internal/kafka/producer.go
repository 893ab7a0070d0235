package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"ws-booking/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

type bookingEvent struct {
	Type      string         `json:"type"`
	Booking   models.Booking `json:"booking"`
	Timestamp time.Time      `json:"timestamp"`
}

type cashTokenEvent struct {
	Type      string           `json:"type"`
	CashToken models.CashToken `json:"cash_token"`
	Timestamp time.Time        `json:"timestamp"`
}

// PublishBookingEvent streams a booking lifecycle transition, keyed by
// booking id so one booking's events stay ordered.
func (p *Producer) PublishBookingEvent(eventType string, booking models.Booking) error {
	msgBytes, err := json.Marshal(bookingEvent{
		Type:      eventType,
		Booking:   booking,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(booking.BookingID),
			Value: msgBytes,
		},
	)
}

// PublishCashTokenEvent streams a cash-token mint/validate/reject, keyed
// by the token's booking so it interleaves with the booking's own events.
func (p *Producer) PublishCashTokenEvent(eventType string, token models.CashToken) error {
	msgBytes, err := json.Marshal(cashTokenEvent{
		Type:      eventType,
		CashToken: token,
		Timestamp: time.Now(),
	})
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(token.BookingID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
