package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"paperdesk/internal/decision"
	"paperdesk/internal/ledger"
	"paperdesk/internal/market"
	"paperdesk/internal/session"
	"paperdesk/internal/sizing"
)

type stubMarket struct {
	snap market.Snapshot
	err  error
}

func (s stubMarket) Fetch(context.Context, string, string) (market.Snapshot, error) {
	return s.snap, s.err
}

type stubVotes struct {
	votes []decision.Vote
}

func (s stubVotes) Poll(context.Context, string, market.Snapshot, ledger.State) ([]decision.Vote, error) {
	return s.votes, nil
}

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	agg := decision.NewAggregator(decision.DefaultConfig(), nil)
	sizer := sizing.New(sizing.DefaultConfig())
	mgr := session.NewManager(session.DefaultConfig(), session.Deps{
		Market: stubMarket{snap: market.Snapshot{
			Symbol:    "RELIANCE",
			Price:     decimal.NewFromInt(1500),
			Timestamp: time.Now(),
		}},
		Votes:      stubVotes{},
		Aggregator: agg,
		Sizer:      sizer,
	})
	srv, err := NewServer(ServerConfig{
		Addr:   ":0",
		Router: &Router{Manager: mgr, Aggregator: agg, Sizer: sizer},
	})
	require.NoError(t, err)
	return srv, mgr
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAPI_SessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions",
		`{"symbol": "reliance", "interval": "5min", "initial_budget": 50000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := gjson.Parse(rec.Body.String())
	id := body.Get("session_id").String()
	require.NotEmpty(t, id)
	assert.Equal(t, "RELIANCE", body.Get("symbol").String())
	assert.Equal(t, "50000", body.Get("portfolio.available_cash").String())

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gjson.Parse(rec.Body.String()).Get("sessions").Array(), 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Parse(rec.Body.String()).Get("active").Bool())

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/close", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/process", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_ProcessAndHistory(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", `{"symbol": "RELIANCE"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := gjson.Parse(rec.Body.String()).Get("session_id").String()

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/process", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := gjson.Parse(rec.Body.String())
	// Empty vote set degrades to the degenerate HOLD turn.
	assert.Equal(t, "HOLD", body.Get("decision.final_action").String())
	assert.False(t, body.Get("executed").Bool())

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/decisions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gjson.Parse(rec.Body.String()).Get("decisions").Array(), 1)
}

func TestAPI_ManualAction(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", `{"symbol": "RELIANCE"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := gjson.Parse(rec.Body.String()).Get("session_id").String()

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/manual",
		`{"action": "BUY", "quantity": 10, "price": 1500}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := gjson.Parse(rec.Body.String())
	assert.True(t, body.Get("execution.ok").Bool())
	assert.Equal(t, "85000", body.Get("portfolio.available_cash").String())

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/"+id+"/trades", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gjson.Parse(rec.Body.String()).Get("trades").Array(), 1)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/manual",
		`{"action": "HOLD", "quantity": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_DecidePreview(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", `{"symbol": "RELIANCE"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := gjson.Parse(rec.Body.String()).Get("session_id").String()

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/decide", `{
		"price": 1000,
		"votes": [
			{"agent_type": "technical", "action": "STRONG_BUY", "confidence": 90},
			{"agent_type": "sector", "action": "BUY", "confidence": 85},
			{"agent_type": "ml", "action": "BUY", "confidence": 85}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, "BUY", body.Get("decision.final_action").String())
	assert.Equal(t, "950", body.Get("decision.stop_loss").String())
	// No vote carried a size, so the preview sizes from the combined
	// confidence (86.67, MEDIUM risk): 0.8667*0.30*0.8 = 20.8%.
	assert.InDelta(t, 20.8, body.Get("decision.position_size_percent").Float(), 0.01)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/decide",
		`{"votes": [{"agent_type": "technical", "action": "YOLO", "confidence": 90}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAPI_DecidePreviewAveragesSuggestedSizes(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", `{"symbol": "RELIANCE"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := gjson.Parse(rec.Body.String()).Get("session_id").String()

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/decide", `{
		"price": 1000,
		"votes": [
			{"agent_type": "technical", "action": "BUY", "confidence": 90, "position_size_percent": 20},
			{"agent_type": "sector", "action": "BUY", "confidence": 80}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	// avg(20, default 10) = 15, all-cash portfolio scales 1.2x -> 18%.
	assert.InDelta(t, 18, gjson.Parse(rec.Body.String()).Get("decision.position_size_percent").Float(), 0.01)
}

func TestAPI_UnknownSessionIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
