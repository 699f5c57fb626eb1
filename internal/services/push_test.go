package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPNsStub(t *testing.T, status int, handle func(r *http.Request, body map[string]interface{})) *APNsPusher {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if handle != nil {
			handle(r, body)
		}
		w.Header().Set("apns-id", "stub-id")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"reason":"BadDeviceToken"}`))
		}
	}))
	t.Cleanup(srv.Close)

	client := &apns2.Client{HTTPClient: srv.Client(), Host: srv.URL}
	return NewAPNsPusherWithClient(client, "com.dtp.app")
}

func TestAPNsPusher_Push(t *testing.T) {
	var (
		path  string
		topic string
		got   map[string]interface{}
	)
	pusher := newAPNsStub(t, http.StatusOK, func(r *http.Request, body map[string]interface{}) {
		path = r.URL.Path
		topic = r.Header.Get("apns-topic")
		got = body
	})

	err := pusher.Push(context.Background(), "device-token", WSMessage{Type: EventChatAccepted, ChatID: "c1", Message: "Neon_Ghost accepted your signal"})
	require.NoError(t, err)

	assert.Equal(t, "/3/device/device-token", path)
	assert.Equal(t, "com.dtp.app", topic)
	assert.Equal(t, EventChatAccepted, got["type"])
	assert.Equal(t, "c1", got["chat_id"])
	aps, ok := got["aps"].(map[string]interface{})
	require.True(t, ok)
	alert, ok := aps["alert"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Neon_Ghost accepted your signal", alert["body"])
}

func TestAPNsPusher_Rejected(t *testing.T) {
	pusher := newAPNsStub(t, http.StatusBadRequest, nil)

	err := pusher.Push(context.Background(), "bad", WSMessage{Type: EventChatMessage})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BadDeviceToken")
}
