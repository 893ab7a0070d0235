package sse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ws-booking/internal/models"
	"ws-booking/internal/sse"
)

func booking(id, workspaceID string, status models.BookingStatus) models.Booking {
	return models.Booking{BookingID: id, WorkspaceID: workspaceID, Status: status}
}

func receive(t *testing.T, ch chan models.Booking) models.Booking {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for booking update")
		return models.Booking{}
	}
}

func TestEmitReachesBookingSubscriber(t *testing.T) {
	emitter := sse.NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToBooking(ctx, "bk1")
	emitter.EmitBookingUpdate(booking("bk1", "ws1", models.BookingInProgress))

	got := receive(t, ch)
	assert.Equal(t, "bk1", got.BookingID)
	assert.Equal(t, models.BookingInProgress, got.Status)
}

func TestEmitReachesWorkspaceSubscriber(t *testing.T) {
	emitter := sse.NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToWorkspace(ctx, "ws1")
	emitter.EmitBookingUpdate(booking("bk1", "ws1", models.BookingCompleted))

	got := receive(t, ch)
	assert.Equal(t, "bk1", got.BookingID)
}

func TestEmitSkipsOtherBookings(t *testing.T) {
	emitter := sse.NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToBooking(ctx, "bk1")
	emitter.EmitBookingUpdate(booking("bk2", "ws2", models.BookingCancelled))

	select {
	case b := <-ch:
		t.Fatalf("unexpected update for booking %s", b.BookingID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberDoesNotBlockEmit(t *testing.T) {
	emitter := sse.NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := emitter.SubscribeToBooking(ctx, "bk1")
	// Fill the channel buffer and keep emitting; sends past capacity are
	// dropped rather than blocking the caller.
	for i := 0; i < 25; i++ {
		emitter.EmitBookingUpdate(booking("bk1", "ws1", models.BookingInProgress))
	}

	assert.Len(t, ch, 10)
}

func TestCancelledSubscriberIsRemoved(t *testing.T) {
	emitter := sse.NewBookingEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := emitter.SubscribeToBooking(ctx, "bk1")
	cancel()

	// The cleanup goroutine closes the channel once the context ends.
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
