package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var got []Event
	unsubscribe := bus.Subscribe(PhaseChanged, func(event Event) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
	})
	defer unsubscribe()

	if err := bus.Publish(context.Background(), NewPhaseChanged("id-1", "translation", "chunks-generated", 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bus.Publish(context.Background(), NewInstanceStarted("id-1", "translation")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Close waits for queued events to be handled.
	if err := bus.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	payload, ok := got[0].Payload.(*PhaseEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", got[0].Payload)
	}
	if payload.Phase != "chunks-generated" || payload.ChunkCount != 3 {
		t.Errorf("unexpected payload %+v", payload)
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus()

	var count atomic.Int32
	bus.SubscribeAll(func(Event) { count.Add(1) })

	_ = bus.Publish(context.Background(), NewInstanceStarted("a", "languagedetection"))
	_ = bus.Publish(context.Background(), NewAnalysisComplete("a", "languagedetection", 2, 1, time.Second))
	_ = bus.Close()

	if count.Load() != 2 {
		t.Errorf("expected 2 events, got %d", count.Load())
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var count atomic.Int32
	unsubscribe := bus.Subscribe(AnalysisFailed, func(Event) { count.Add(1) })
	if bus.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}

	unsubscribe()
	unsubscribe()

	if bus.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", bus.SubscriberCount())
	}
	_ = bus.Publish(context.Background(), NewAnalysisFailed("", "translation", 1, 0, errors.New("boom")))
	time.Sleep(10 * time.Millisecond)
	if count.Load() != 0 {
		t.Errorf("expected no events after unsubscribe, got %d", count.Load())
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus()
	_ = bus.Close()

	err := bus.Publish(context.Background(), NewInstanceStarted("a", "translation"))
	if !errors.Is(err, ErrBusClosed) {
		t.Errorf("expected ErrBusClosed, got %v", err)
	}
	// A second close is a no-op.
	if err := bus.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

func TestBus_DropsWhenBufferFull(t *testing.T) {
	bus := NewBus(WithBufferSize(1))

	release := make(chan struct{})
	var handled atomic.Int32
	bus.Subscribe(PhaseChanged, func(Event) {
		<-release
		handled.Add(1)
	})

	for i := 0; i < 10; i++ {
		if err := bus.Publish(context.Background(), NewPhaseChanged("", "translation", "params-received", 0)); err != nil {
			t.Fatalf("publish must not block or fail: %v", err)
		}
	}
	close(release)
	_ = bus.Close()

	if n := handled.Load(); n >= 10 || n == 0 {
		t.Errorf("expected some events dropped, handled %d", n)
	}
}

func TestBus_HandlerPanicDoesNotStopDelivery(t *testing.T) {
	bus := NewBus()

	var count atomic.Int32
	bus.Subscribe(AnalysisComplete, func(Event) {
		if count.Add(1) == 1 {
			panic("boom")
		}
	})

	_ = bus.Publish(context.Background(), NewAnalysisComplete("", "translation", 1, 1, 0))
	_ = bus.Publish(context.Background(), NewAnalysisComplete("", "translation", 1, 1, 0))
	_ = bus.Close()

	if count.Load() != 2 {
		t.Errorf("expected 2 deliveries, got %d", count.Load())
	}
}

func TestBus_PayloadValidation(t *testing.T) {
	bus := NewBus(WithPayloadValidation(true))
	defer bus.Close()

	err := bus.Publish(context.Background(), NewEvent(PhaseChanged, &AnalysisEvent{}))
	if err == nil {
		t.Fatal("expected payload mismatch error")
	}
	if err := bus.Publish(context.Background(), NewConfigReloaded([]string{"log_level"})); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
