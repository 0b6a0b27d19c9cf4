package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/llm"
	"github.com/comigor/bodi-go/internal/logger"
	"github.com/comigor/bodi-go/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Discard()
}

type mockResponder struct {
	reply string
	err   error
	got   llm.Request
}

func (m *mockResponder) Respond(_ context.Context, req llm.Request) (string, error) {
	m.got = req
	return m.reply, m.err
}

func testCatalog() *catalog.Provider {
	return catalog.NewStaticProvider([]catalog.Entry{
		{ID: "LAG-001", Title: "2-Bedroom in Yaba", Location: "Yaba, Lagos", PriceMinor: 80_000_000, Verified: true},
		{ID: "LAG-002", Title: "Studio in Ikeja", Location: "Ikeja, Lagos", PriceMinor: 30_000_000},
		{ID: "ABJ-003", Title: "Duplex in Maitama", Location: "Maitama, Abuja", PriceMinor: 500_000_000, Verified: true},
	})
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func ids(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var entries []catalog.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	out := []string{}
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestListProperties(t *testing.T) {
	h := New(Deps{Catalog: testCatalog()})

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/properties", []string{"LAG-001", "LAG-002", "ABJ-003"}},
		{"/api/properties?location=lagos", []string{"LAG-001", "LAG-002"}},
		{"/api/properties?max_price=800000", []string{"LAG-001", "LAG-002"}},
		{"/api/properties?max_price=1000000000000000", []string{"LAG-001", "LAG-002", "ABJ-003"}},
		{"/api/properties?verified_only=true&location=abuja", []string{"ABJ-003"}},
		{"/api/properties?recommended=ABJ-003,NOP-404,LAG-001", []string{"ABJ-003", "LAG-001"}},
		{"/api/properties?recommended=ABJ-003%2CLAG-002&location=abuja", []string{"ABJ-003", "LAG-002"}},
		{"/api/properties?recommended=", []string{}},
		{"/api/properties?recommended=,,lag-1", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			require.Equal(t, tt.want, ids(t, rec))
		})
	}
}

func TestListProperties_BadQuery(t *testing.T) {
	h := New(Deps{Catalog: testCatalog()})
	for _, raw := range []string{"cheap", "-1", "NaN", "Inf", "+Inf", "-Inf", "1e300", "92233720368547758", "1e17"} {
		require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/properties?max_price="+url.QueryEscape(raw), nil).Code, raw)
	}
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/properties?verified_only=maybe", nil).Code)
}

func TestGetProperty(t *testing.T) {
	h := New(Deps{Catalog: testCatalog()})

	rec := do(t, h, http.MethodGet, "/api/properties/LAG-002", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var e catalog.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	require.Equal(t, "Studio in Ikeja", e.Title)

	rec = do(t, h, http.MethodGet, "/api/properties/NOP-404", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Property not found")
}

func TestChat(t *testing.T) {
	responder := &mockResponder{reply: "Check **LAG-001**."}
	h := New(Deps{Catalog: testCatalog(), Responder: responder})

	rec := do(t, h, http.MethodPost, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "assistant", "content": "Hi!"}, {"role": "user", "content": "Yaba flat"}},
		"language": "pidgin",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Response string `json:"response"`
		Language string `json:"language"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "Check **LAG-001**.", out.Response)
	require.Equal(t, "pidgin", out.Language)
	require.Equal(t, llm.Pidgin, responder.got.Language)
	require.Len(t, responder.got.Messages, 2)
	require.Equal(t, "Yaba flat", responder.got.Messages[1].Text)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestChat_Validation(t *testing.T) {
	h := New(Deps{Catalog: testCatalog(), Responder: &mockResponder{reply: "x"}})

	bad := []any{
		map[string]any{"messages": []map[string]string{}},
		map[string]any{"messages": []map[string]string{{"role": "system", "content": "x"}}},
		map[string]any{"messages": []map[string]string{{"role": "user", "content": ""}}},
		map[string]any{"messages": []map[string]string{{"role": "user", "content": "x"}}, "language": "fr"},
		map[string]any{"messages": []map[string]string{{"role": "user", "content": strings.Repeat("a", MaxMessageContentBytes+1)}}},
		map[string]any{"messages": repeatMessages(MaxMessagesPerRequest + 1)},
	}
	for _, body := range bad {
		require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/chat", body).Code)
	}

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/chat", map[string]any{"messages": repeatMessages(MaxMessagesPerRequest)}).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func repeatMessages(n int) []map[string]string {
	out := make([]map[string]string, n)
	for i := range out {
		out[i] = map[string]string{"role": "user", "content": "hi"}
	}
	return out
}

func TestChat_Errors(t *testing.T) {
	body := map[string]any{"messages": []map[string]string{{"role": "user", "content": "hi"}}}

	h := New(Deps{Catalog: testCatalog()})
	rec := do(t, h, http.MethodPost, "/api/chat", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "no dey available")

	h = New(Deps{Catalog: testCatalog(), Responder: &mockResponder{err: errors.New("upstream down")}})
	require.Equal(t, http.StatusBadGateway, do(t, h, http.MethodPost, "/api/chat", body).Code)

	h = New(Deps{Catalog: testCatalog(), Responder: &mockResponder{err: context.DeadlineExceeded}})
	require.Equal(t, http.StatusGatewayTimeout, do(t, h, http.MethodPost, "/api/chat", body).Code)
}

func TestChat_RateLimited(t *testing.T) {
	h := New(Deps{Catalog: testCatalog(), Responder: &mockResponder{reply: "ok"}, ChatRPS: 0.001, ChatBurst: 1})
	body := map[string]any{"messages": []map[string]string{{"role": "user", "content": "hi"}}}

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/chat", body).Code)
	require.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/api/chat", body).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := New(Deps{Catalog: testCatalog(), Metrics: m, Gatherer: reg})

	rec := do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"listings":3`)

	do(t, h, http.MethodGet, "/api/properties/LAG-001", nil)

	rec = do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `bodi_api_requests_total{route="/api/properties/:id",status="200"} 1`)
}
