package events

import (
	"encoding/json"
	"errors"
	"testing"
)

type stubSubscriber struct {
	received [][]byte
	err      error
}

func (s *stubSubscriber) Send(data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.received = append(s.received, data)
	return nil
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	t.Parallel()

	broker := NewBroker(nil)
	first := &stubSubscriber{}
	second := &stubSubscriber{}
	broker.Attach(first)
	broker.Attach(second)

	broker.Publish(TypeJobScored, map[string]any{"jobId": "job-1", "totalScore": 88})

	for i, sub := range []*stubSubscriber{first, second} {
		if len(sub.received) != 1 {
			t.Fatalf("subscriber %d: expected one event, got %d", i, len(sub.received))
		}

		var event Event
		if err := json.Unmarshal(sub.received[0], &event); err != nil {
			t.Fatalf("subscriber %d: decoding event: %v", i, err)
		}
		if event.Type != TypeJobScored {
			t.Fatalf("subscriber %d: expected type %s, got %s", i, TypeJobScored, event.Type)
		}
		if event.Timestamp.IsZero() {
			t.Fatalf("subscriber %d: expected timestamp to be set", i)
		}

		payload, ok := event.Payload.(map[string]any)
		if !ok {
			t.Fatalf("subscriber %d: expected map payload, got %T", i, event.Payload)
		}
		if payload["jobId"] != "job-1" {
			t.Fatalf("subscriber %d: unexpected payload %v", i, payload)
		}
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	t.Parallel()

	broker := NewBroker(nil)
	broker.Publish(TypeApplicationSubmitted, map[string]any{"jobId": "job-1"})

	if broker.SubscriberCount() != 0 {
		t.Fatalf("expected no subscribers, got %d", broker.SubscriberCount())
	}
}

func TestFailingSubscriberIsDropped(t *testing.T) {
	t.Parallel()

	broker := NewBroker(nil)
	broken := &stubSubscriber{err: errors.New("connection reset")}
	healthy := &stubSubscriber{}
	broker.Attach(broken)
	broker.Attach(healthy)

	broker.Publish(TypeApprovalRequired, map[string]any{"jobId": "job-1"})

	if broker.SubscriberCount() != 1 {
		t.Fatalf("expected failing subscriber to be dropped, count=%d", broker.SubscriberCount())
	}
	if len(healthy.received) != 1 {
		t.Fatalf("expected healthy subscriber to still receive the event, got %d", len(healthy.received))
	}

	// The dropped subscriber no longer receives later publishes.
	broker.Publish(TypeApprovalRequired, map[string]any{"jobId": "job-2"})
	if len(healthy.received) != 2 {
		t.Fatalf("expected two events on healthy subscriber, got %d", len(healthy.received))
	}
}

func TestDetach(t *testing.T) {
	t.Parallel()

	broker := NewBroker(nil)
	sub := &stubSubscriber{}
	broker.Attach(sub)
	broker.Detach(sub)
	broker.Detach(sub) // unknown subscriber is a no-op

	broker.Publish(TypeJobScored, nil)
	if len(sub.received) != 0 {
		t.Fatalf("expected no delivery after detach, got %d", len(sub.received))
	}
}

func TestHandlersRunInRegistrationOrder(t *testing.T) {
	t.Parallel()

	broker := NewBroker(nil)
	var calls []string
	broker.On(TypeJobScored, func(any) { calls = append(calls, "first") })
	broker.On(TypeJobScored, func(any) { calls = append(calls, "second") })
	broker.On(TypeApplicationSubmitted, func(any) { calls = append(calls, "other") })

	broker.Publish(TypeJobScored, map[string]any{"jobId": "job-1"})

	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("expected ordered handler calls for the published type, got %v", calls)
	}
}

func TestHandlerReceivesOriginalPayload(t *testing.T) {
	t.Parallel()

	type submission struct {
		JobID string
	}

	broker := NewBroker(nil)
	var got any
	broker.On(TypeApplicationSubmitted, func(payload any) { got = payload })

	broker.Publish(TypeApplicationSubmitted, submission{JobID: "job-1"})

	payload, ok := got.(submission)
	if !ok {
		t.Fatalf("expected typed payload, got %T", got)
	}
	if payload.JobID != "job-1" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
