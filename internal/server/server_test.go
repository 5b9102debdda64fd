package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/marblesim/marble-game/internal/calculation"
	"github.com/marblesim/marble-game/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimit = 0
	if mutate != nil {
		mutate(&cfg)
	}
	s := New(cfg, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func coinFlipRequest() SimulationRequest {
	return SimulationRequest{
		Outcomes: []OutcomeRequest{
			{Label: "A", Probability: 50, Multiplier: 2},
			{Label: "B", Probability: 50, Multiplier: -1},
		},
		StartingEquity: 1000,
		RiskPercent:    10,
		Draws:          20,
		Seed:           42,
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestPresets(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/api/presets")
	require.NoError(t, err)
	defer resp.Body.Close()

	presets := decodeBody[[]presetResponse](t, resp)
	require.Len(t, presets, 10)
	for _, p := range presets {
		assert.InDelta(t, p.WinRatePercent, p.WinProbabilityPercent, 1e-9, p.Name)
	}
}

func TestSimulate_MatchesEngine(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp := postJSON(t, ts.URL+"/api/simulate", coinFlipRequest())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[RunResponse](t, resp)
	_, err := uuid.Parse(body.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), body.Seed)
	require.NotNil(t, body.Single)
	require.NotNil(t, body.Performance)

	dist, err := calculation.ValidateDistribution([]domain.Outcome{
		{Label: "A", ProbabilityPercent: 50, Multiplier: 2},
		{Label: "B", ProbabilityPercent: 50, Multiplier: -1},
	})
	require.NoError(t, err)
	want, err := calculation.NewSingleRunSimulator().Run(dist, domain.RunParameters{StartingEquity: 1000, RiskFraction: 0.1, DrawCount: 20}, calculation.NewRandomSource(42))
	require.NoError(t, err)

	assert.InDelta(t, want.FinalEquity, body.Single.FinalEquity, 1e-6)
	assert.Equal(t, want.WinCount, body.Single.WinCount)
	assert.Len(t, body.Single.Draws, 20)
}

func TestSimulate_Rejections(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) { c.MaxDraws = 500 })

	badSum := coinFlipRequest()
	badSum.Outcomes[1].Probability = 49.95

	badRisk := coinFlipRequest()
	badRisk.RiskPercent = 150

	unknownPreset := SimulationRequest{Preset: "Lucky Guesser"}

	tooMany := coinFlipRequest()
	tooMany.Draws = 501

	tests := []struct {
		name string
		body any
		kind string
	}{
		{"probability sum", badSum, "probability_sum_invalid"},
		{"risk above 100 percent", badRisk, "non_positive_parameter"},
		{"unknown preset", unknownPreset, kindInvalidConfig},
		{"draw limit", tooMany, kindLimitExceeded},
		{"unknown field", map[string]any{"marbles": 3}, kindBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/simulate", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody[ErrorResponse](t, resp)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}

	resp, err := http.Post(ts.URL+"/api/simulate", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMonteCarlo(t *testing.T) {
	_, ts := newTestServer(t, nil)
	req := coinFlipRequest()
	req.Simulations = 300
	req.HistogramBuckets = 12

	resp := postJSON(t, ts.URL+"/api/montecarlo", req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[RunResponse](t, resp)

	require.NotNil(t, body.MonteCarlo)
	assert.Equal(t, 300, body.MonteCarlo.SimulationCount)
	assert.Len(t, body.MonteCarlo.Histogram, 12)
	assert.Len(t, body.MonteCarlo.EquityCurve, 21)

	// same seed, same answer
	again := decodeBody[RunResponse](t, postJSON(t, ts.URL+"/api/montecarlo", req))
	assert.Equal(t, body.MonteCarlo.Summary, again.MonteCarlo.Summary)
}

func TestMonteCarlo_Limits(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) {
		c.MaxSimulations = 100
		c.MaxBuckets = 50
	})

	tooManyRuns := coinFlipRequest()
	tooManyRuns.Simulations = 101

	tooManyBuckets := coinFlipRequest()
	tooManyBuckets.Simulations = 10
	tooManyBuckets.HistogramBuckets = 5_000_000

	for name, req := range map[string]SimulationRequest{"simulations": tooManyRuns, "buckets": tooManyBuckets} {
		t.Run(name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/montecarlo", req)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody[ErrorResponse](t, resp)
			assert.Equal(t, kindLimitExceeded, body.Kind)
			assert.Contains(t, body.Error, name)
		})
	}

	atLimit := coinFlipRequest()
	atLimit.Simulations = 10
	atLimit.HistogramBuckets = 50
	resp := postJSON(t, ts.URL+"/api/montecarlo", atLimit)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[RunResponse](t, resp).MonteCarlo.Histogram, 50)
}

func TestDefaultConfig_CapsBuckets(t *testing.T) {
	s := New(Config{}, nil)
	assert.Equal(t, DefaultConfig().MaxBuckets, s.cfg.MaxBuckets)
	assert.Positive(t, s.cfg.MaxBuckets)
}

func TestCompare_DefaultPlayers(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp := postJSON(t, ts.URL+"/api/compare", SimulationRequest{Preset: "Conservative Swing", Draws: 30, Seed: 7})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[RunResponse](t, resp)
	require.NotNil(t, body.Comparison)
	require.Len(t, body.Comparison.Players, 4)
	assert.Equal(t, "Vic", body.Comparison.Players[0].Player.Name)
	assert.Len(t, body.Comparison.Draws, 30)
	assert.NotEmpty(t, body.Comparison.BestReturn)
}

func TestCompare_InvalidPlayer(t *testing.T) {
	_, ts := newTestServer(t, nil)
	req := coinFlipRequest()
	req.Players = []PlayerRequest{{Name: "", RiskPercent: 5}}

	resp := postJSON(t, ts.URL+"/api/compare", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_player", decodeBody[ErrorResponse](t, resp).Kind)
}

func TestRateLimit(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) {
		c.RateLimit = 0.001
		c.RateBurst = 1
	})

	first := postJSON(t, ts.URL+"/api/simulate", coinFlipRequest())
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := postJSON(t, ts.URL+"/api/simulate", coinFlipRequest())
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, kindRateLimited, decodeBody[ErrorResponse](t, second).Kind)

	// health is not rate limited
	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)
	postJSON(t, ts.URL+"/api/simulate", coinFlipRequest())

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `marbles_simulations_total{kind="single",status="ok"} 1`)
	assert.Contains(t, text, `marbles_draws_total{kind="single"} 20`)
}

func dialStream(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/montecarlo/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMonteCarloStream(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialStream(t, ts)

	req := coinFlipRequest()
	req.Simulations = 250
	require.NoError(t, conn.WriteJSON(req))

	var progress []StreamMessage
	var final StreamMessage
	for {
		var msg StreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != MessageProgress {
			final = msg
			break
		}
		progress = append(progress, msg)
	}

	require.Equal(t, MessageResult, final.Type, final.Error)
	require.NotNil(t, final.Report)
	require.NotNil(t, final.Report.MonteCarlo)
	assert.Equal(t, 250, final.Report.MonteCarlo.SimulationCount)

	require.Len(t, progress, 3)
	assert.Equal(t, 100, progress[0].Completed)
	assert.Equal(t, 250, progress[2].Completed)
	assert.Equal(t, 250, progress[2].Total)
	assert.Equal(t, final.ID, progress[0].ID)
}

func TestMonteCarloStream_InvalidRequest(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialStream(t, ts)

	req := coinFlipRequest()
	req.Outcomes = nil
	req.Preset = "nope"
	require.NoError(t, conn.WriteJSON(req))

	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageError, msg.Type)
	assert.Equal(t, kindInvalidConfig, msg.Kind)
}

func TestMonteCarloStream_OversizedRequest(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialStream(t, ts)

	body, err := json.Marshal(coinFlipRequest())
	require.NoError(t, err)
	// a valid request padded past the frame limit is never decoded or run
	payload := append([]byte(strings.Repeat(" ", maxBodyBytes)), body...)
	_ = conn.WriteMessage(websocket.TextMessage, payload)

	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		assert.Equal(t, websocket.CloseMessageTooBig, closeErr.Code)
	}
}
