package natsx

import (
	"context"
	"testing"
	"time"
)

func TestMemIdemSeenOnce(t *testing.T) {
	store := NewMemIdem(time.Minute)

	seen, err := store.SeenOnce("k1", 0)
	if err != nil || seen {
		t.Fatalf("first sight must not be seen, got seen=%v err=%v", seen, err)
	}
	seen, _ = store.SeenOnce("k1", 0)
	if !seen {
		t.Fatalf("second sight inside the window must be seen")
	}
	seen, _ = store.SeenOnce("k2", 0)
	if seen {
		t.Fatalf("different key must not be seen")
	}
}

func TestIdemMiddlewareDropsDuplicates(t *testing.T) {
	store := NewMemIdem(time.Minute)
	calls := 0
	h := NatsxIdemMiddleware(store, time.Minute)(func(ctx context.Context, msg NatsxMessage) error {
		calls++
		return nil
	})

	msg := NatsxMessage{
		Subject: "identity.user.created",
		Data:    []byte(`{"userId":"u1"}`),
		Header:  map[string]string{"Nats-Msg-Id": "evt-1"},
	}
	_ = h(context.Background(), msg)
	_ = h(context.Background(), msg)
	if calls != 1 {
		t.Fatalf("duplicate delivery reached the handler, calls=%d", calls)
	}

	msg.Header["Nats-Msg-Id"] = "evt-2"
	_ = h(context.Background(), msg)
	if calls != 2 {
		t.Fatalf("new id must pass through, calls=%d", calls)
	}
}

func TestIdemMiddlewareFallbackKey(t *testing.T) {
	store := NewMemIdem(time.Minute)
	calls := 0
	h := NatsxIdemMiddleware(store, time.Minute)(func(ctx context.Context, msg NatsxMessage) error {
		calls++
		return nil
	})

	// no id header: subject+body is the key
	msg := NatsxMessage{Subject: "s", Data: []byte("same")}
	_ = h(context.Background(), msg)
	_ = h(context.Background(), msg)
	if calls != 1 {
		t.Fatalf("identical subject+body must dedupe, calls=%d", calls)
	}

	_ = h(context.Background(), NatsxMessage{Subject: "s", Data: []byte("other")})
	if calls != 2 {
		t.Fatalf("different body must pass, calls=%d", calls)
	}
}
