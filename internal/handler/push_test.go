package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/dukerupert/tasklevel/internal/model"
	"github.com/dukerupert/tasklevel/internal/push"
)

type recordingNotifier struct {
	profileID string
	payload   push.Payload
}

func (n *recordingNotifier) Notify(_ context.Context, profileID string, p push.Payload) int {
	n.profileID = profileID
	n.payload = p
	return 1
}

func TestPushSubscribe(t *testing.T) {
	env := setupHandlers(t)

	rec := env.do(t, "owner", "POST", "/api/push/subscribe", map[string]any{
		"endpoint": "https://push.example.com/a",
		"keys":     map[string]string{"p256dh": "key", "auth": "secret"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	sub := decode[model.PushSubscription](t, rec)
	if sub.ProfileID != "owner" || sub.P256dhKey != "key" || !sub.Active {
		t.Errorf("subscription = %+v", sub)
	}

	// A second device replaces the first.
	env.do(t, "owner", "POST", "/api/push/subscribe", map[string]string{
		"endpoint": "https://push.example.com/b", "p256dh": "key2", "auth": "secret2",
	})
	subs, err := env.pushH.pushStore.ListActive(context.Background(), "owner")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].Endpoint != "https://push.example.com/b" {
		t.Errorf("active subscriptions = %+v", subs)
	}

	if rec := env.do(t, "owner", "POST", "/api/push/subscribe", map[string]string{"endpoint": "x"}); rec.Code != http.StatusBadRequest {
		t.Errorf("missing keys: status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	if rec := env.do(t, "owner", "DELETE", "/api/push/subscription", nil); rec.Code != http.StatusNoContent {
		t.Errorf("unsubscribe: status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	subs, _ = env.pushH.pushStore.ListActive(context.Background(), "owner")
	if len(subs) != 0 {
		t.Errorf("subscriptions after delete = %d, want 0", len(subs))
	}
}

func TestPushVAPIDKeyAndTest(t *testing.T) {
	env := setupHandlers(t)

	if rec := env.do(t, "", "GET", "/api/push/vapid-key", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured key: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	if rec := env.do(t, "owner", "POST", "/api/push/test", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured test: status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	n := &recordingNotifier{}
	env.pushH.publicKey = "BPublicKey"
	env.pushH.notifier = n

	rec := env.do(t, "", "GET", "/api/push/vapid-key", nil)
	if got := decode[map[string]string](t, rec)["public_key"]; got != "BPublicKey" {
		t.Errorf("public_key = %q", got)
	}

	rec = env.do(t, "owner", "POST", "/api/push/test", nil)
	if got := decode[map[string]int](t, rec)["sent"]; got != 1 {
		t.Errorf("sent = %d, want 1", got)
	}
	if n.profileID != "owner" || n.payload.Tag != push.Test().Tag {
		t.Errorf("notified %q with %+v", n.profileID, n.payload)
	}
}
