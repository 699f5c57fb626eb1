package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dtp-backend/internal/geo"
	"dtp-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// geminiStub answers generateContent with a fixed candidate text and
// records the last request body
type geminiStub struct {
	status int
	text   string
	calls  atomic.Int32
	last   atomic.Value // generateRequest
	path   atomic.Value // string
	key    atomic.Value // string
}

func (s *geminiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)
	s.path.Store(r.URL.Path)
	s.key.Store(r.URL.Query().Get("key"))

	var req generateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	s.last.Store(req)

	w.Header().Set("Content-Type", "application/json")
	if s.status >= 400 {
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exhausted"}}`))
		return
	}
	resp := map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": s.text}}}},
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newStubClient(t *testing.T, stub *geminiStub) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	c, err := NewGeminiClient("test-key", srv.URL, "models/gemini-test", 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient("  ", "", "gemini", time.Second)
	assert.Error(t, err)
	_, err = NewGeminiClient("key", "", "", time.Second)
	assert.Error(t, err)
}

func TestFakeDrops_Success(t *testing.T) {
	stub := &geminiStub{text: `[
		{"name":"Neon_Ghost","age":27,"gender":"Female","bio":"Static in my veins","note":"Find me under the bridge"},
		{"name":"Rust","age":31.4,"gender":"Trans","bio":"Chrome heart","note":"Bring coffee"}
	]`}
	c := newStubClient(t, stub)

	res := c.FakeDrops(context.Background(), geo.Point{Lat: 41.0082, Lng: 28.9784}, 2)
	require.True(t, res.OK, res.Reason)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "Neon_Ghost", res.Data[0].Name)
	assert.Equal(t, models.GenderFemale, res.Data[0].Gender)
	assert.Equal(t, 31, res.Data[1].Age)

	assert.Equal(t, "/models/gemini-test:generateContent", stub.path.Load())
	assert.Equal(t, "test-key", stub.key.Load())
	req := stub.last.Load().(generateRequest)
	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
	assert.NotNil(t, req.SystemInstruction)
	assert.Contains(t, req.Contents[0].Parts[0].Text, "Generate 2")
}

func TestFakeDrops_FencedJSON(t *testing.T) {
	stub := &geminiStub{text: "```json\n[{\"name\":\"A\",\"age\":20,\"gender\":\"Male\",\"bio\":\"b\",\"note\":\"n\"}]\n```"}
	res := newStubClient(t, stub).FakeDrops(context.Background(), geo.Point{}, 1)
	require.True(t, res.OK, res.Reason)
	assert.Len(t, res.Data, 1)
}

func TestFakeDrops_Failures(t *testing.T) {
	tests := []struct {
		name   string
		stub   *geminiStub
		reason string
	}{
		{name: "malformed json", stub: &geminiStub{text: `[{"name":`}, reason: "malformed json"},
		{name: "schema violation", stub: &geminiStub{text: `[{"name":"A","age":20,"gender":"Robot","bio":"b","note":"n"}]`}, reason: "schema violation"},
		{name: "missing field", stub: &geminiStub{text: `[{"name":"A","age":20,"gender":"Male","bio":"b"}]`}, reason: "schema violation"},
		{name: "empty text", stub: &geminiStub{text: "  "}, reason: "empty response"},
		{name: "api error", stub: &geminiStub{status: http.StatusTooManyRequests}, reason: "quota exhausted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newStubClient(t, tt.stub).FakeDrops(context.Background(), geo.Point{}, 4)
			assert.False(t, res.OK)
			assert.Nil(t, res.Data)
			assert.Contains(t, res.Reason, tt.reason)
		})
	}
}

func TestReply(t *testing.T) {
	stub := &geminiStub{text: "  Meet me at the neon gate.  "}
	c := newStubClient(t, stub)

	participant := models.Profile{ID: "p1", Name: "Neon_Ghost", Age: 27, Gender: models.GenderFemale, Bio: "Static"}
	history := []models.ChatMessage{{ID: "1", SenderID: models.UserSender, Text: "hello"}}

	res := c.Reply(context.Background(), participant, history, "where?")
	require.True(t, res.OK)
	assert.Equal(t, "Meet me at the neon gate.", res.Data)

	req := stub.last.Load().(generateRequest)
	assert.Nil(t, req.GenerationConfig)
	assert.Equal(t, "User: where?", req.Contents[0].Parts[0].Text)
	sys := req.SystemInstruction.Parts[0].Text
	assert.Contains(t, sys, "Neon_Ghost")
	assert.Contains(t, sys, `"text":"hello"`)
}

func TestReply_Empty(t *testing.T) {
	res := newStubClient(t, &geminiStub{text: ""}).Reply(context.Background(), models.Profile{}, nil, "hi")
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Reason)
}

func TestLore(t *testing.T) {
	stub := &geminiStub{text: `{"summary":"Old docks","vibe":"Rain and bass","status":"No cops","dangerLevel":"HIGH"}`}
	res := newStubClient(t, stub).Lore(context.Background(), "Karakoy")
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, models.DangerHigh, res.Data.DangerLevel)
	assert.Equal(t, "Old docks", res.Data.Summary)

	req := stub.last.Load().(generateRequest)
	assert.True(t, strings.HasPrefix(req.Contents[0].Parts[0].Text, "Location: Karakoy."))
}

func TestLore_BadDangerLevel(t *testing.T) {
	stub := &geminiStub{text: `{"summary":"s","vibe":"v","status":"st","dangerLevel":"MILD"}`}
	res := newStubClient(t, stub).Lore(context.Background(), "x")
	assert.False(t, res.OK)
	assert.Equal(t, models.LoreData{}, res.Data)
}

func TestLore_ContextCancelled(t *testing.T) {
	c := newStubClient(t, &geminiStub{text: "{}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := c.Lore(ctx, "x")
	assert.False(t, res.OK)
}

func TestDisabled(t *testing.T) {
	var g Generator = Disabled{}
	assert.False(t, g.FakeDrops(context.Background(), geo.Point{}, 1).OK)
	assert.False(t, g.Reply(context.Background(), models.Profile{}, nil, "x").OK)
	assert.False(t, g.Lore(context.Background(), "x").OK)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1]`, stripFence("```\n[1]\n```"))
	assert.Equal(t, `plain`, stripFence("  plain "))
}
