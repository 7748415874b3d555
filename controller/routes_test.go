package controller

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/logger"
	"github.com/nightowlcasino/redblack/services/game"
	"github.com/nightowlcasino/redblack/services/mock"
	"github.com/nightowlcasino/redblack/state"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walletAddr = "0x00000000000000000000000000000000000000aa"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestRouter(t *testing.T, rate float64, simOpts ...mock.Option) (*Router, *clock) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}

	opts := append([]mock.Option{
		mock.WithClock(c.Now),
		mock.WithSpinner(func() int { return 1 }),
		mock.WithResolveAfter(15 * time.Second),
	}, simOpts...)
	sim := mock.NewSimulator(opts...)

	svc := game.NewService(sim, state.NewBetState(nil), game.Config{PollInterval: time.Hour}, game.WithClock(c.Now))
	t.Cleanup(func() {
		var wg sync.WaitGroup
		wg.Add(1)
		svc.Stop()
		svc.Wait(&wg)
		wg.Wait()
	})

	r := NewRouter(Deps{
		Game:      svc,
		Backend:   "mock",
		Network:   bahamut.DefaultChainConfig(),
		Contracts: bahamut.DefaultContracts(),
		RateLimit: rate,
	})
	r.Ready()
	return r, c
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthzUntilReady(t *testing.T) {
	r := NewRouter(Deps{Backend: "mock", Network: bahamut.DefaultChainConfig()})

	rec := do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "starting", decode(t, rec)["status"])

	r.Ready()

	rec = do(r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestNetwork(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	rec := do(r, http.MethodGet, "/api/v1/network", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	out := decode(t, rec)
	assert.Equal(t, "mock", out["backend"])
	network := out["network"].(map[string]interface{})
	assert.Equal(t, float64(bahamut.DefaultChainID), network["chainId"])
	assert.NotContains(t, network, "ExplorerAPIURL")
}

func TestSpinFlow(t *testing.T) {
	r, c := newTestRouter(t, 100)
	bet := `{"amount": "10", "token": "ftn", "color": "red"}`

	rec := do(r, http.MethodPost, "/api/v1/sessions/"+walletAddr, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, decode(t, rec)["pending"])

	rec = do(r, http.MethodPost, "/api/v1/bets/"+walletAddr, bet)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, "pending", out["result"])
	assert.Equal(t, "green", out["color"])

	rec = do(r, http.MethodGet, "/api/v1/bets/"+walletAddr+"/pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["isPending"])

	rec = do(r, http.MethodPost, "/api/v1/bets/"+walletAddr+"/check", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	// spinning again while pending reports the pending bet
	rec = do(r, http.MethodPost, "/api/v1/bets/"+walletAddr, bet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["result"])

	c.Advance(15 * time.Second)

	rec = do(r, http.MethodPost, "/api/v1/bets/"+walletAddr+"/check", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out = decode(t, rec)
	assert.Equal(t, "win", out["result"])
	assert.Equal(t, "red", out["color"])
	assert.Equal(t, "You won 20 FTN!", out["message"])

	rec = do(r, http.MethodGet, "/api/v1/bets/"+walletAddr+"/result", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "win", decode(t, rec)["result"])

	rec = do(r, http.MethodGet, "/api/v1/balances/"+walletAddr, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2.001", decode(t, rec)["ftnBalance"])

	rec = do(r, http.MethodGet, "/api/v1/withdrawals/"+walletAddr, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["hasPendingWithdrawal"])

	rec = do(r, http.MethodGet, "/api/v1/history/"+walletAddr+"?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []bahamut.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, bahamut.KindWithdraw, history[0].Type)
	assert.Equal(t, bahamut.KindWin, history[1].Type)
}

func TestSpinErrors(t *testing.T) {
	testCases := []struct {
		name   string
		wallet string
		body   string
		status int
	}{
		{"TestBadBody", walletAddr, `{"amount":`, http.StatusBadRequest},
		{"TestBadAmount", walletAddr, `{"amount": "3", "token": "FTN", "color": "red"}`, http.StatusBadRequest},
		{"TestBadToken", walletAddr, `{"amount": "1", "token": "ETH", "color": "red"}`, http.StatusBadRequest},
		{"TestBadColor", walletAddr, `{"amount": "1", "token": "FTN", "color": "green"}`, http.StatusBadRequest},
		{"TestBadWallet", "0x1234", `{"amount": "1", "token": "FTN", "color": "red"}`, http.StatusBadRequest},
		{"TestInsufficientBalance", walletAddr, `{"amount": 25, "token": "LBR", "color": "black"}`, http.StatusUnprocessableEntity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRouter(t, 100, mock.WithInitialBalances(decimal.NewFromInt(2), decimal.Zero))

			rec := do(r, http.MethodPost, "/api/v1/bets/"+tc.wallet, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestWalletQueries(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	testCases := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"TestWithdrawNothing", http.MethodPost, "/api/v1/withdrawals/" + walletAddr, http.StatusOK},
		{"TestNoLastResult", http.MethodGet, "/api/v1/bets/" + walletAddr + "/result", http.StatusNotFound},
		{"TestBadHistoryLimit", http.MethodGet, "/api/v1/history/" + walletAddr + "?limit=abc", http.StatusBadRequest},
		{"TestEmptyHistory", http.MethodGet, "/api/v1/history/" + walletAddr, http.StatusOK},
		{"TestResetNothing", http.MethodPost, "/api/v1/bets/" + walletAddr + "/reset", http.StatusOK},
		{"TestTxStatusNoExplorer", http.MethodGet, "/api/v1/tx/0xabc", http.StatusOK},
		{"TestNotifsDisabled", http.MethodGet, "/api/v1/notifs/" + walletAddr, http.StatusServiceUnavailable},
		{"TestBadWalletBalances", http.MethodGet, "/api/v1/balances/nope", http.StatusBadRequest},
		{"TestHealthz", http.MethodGet, "/healthz", http.StatusOK},
		{"TestMetrics", http.MethodGet, "/metrics", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, tc.method, tc.path, "")
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestWithdrawNothingBody(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	rec := do(r, http.MethodPost, "/api/v1/withdrawals/"+walletAddr, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{\"withdrawn\":false}\n", rec.Body.String())
}

func TestOptions(t *testing.T) {
	r, _ := newTestRouter(t, 100)

	rec := do(r, http.MethodOptions, "/api/v1/withdrawals/"+walletAddr, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestRateLimit(t *testing.T) {
	r, _ := newTestRouter(t, 1)

	limited := 0
	for i := 0; i < 10; i++ {
		rec := do(r, http.MethodPost, "/api/v1/withdrawals/"+walletAddr, "")
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Greater(t, limited, 0)

	// reads are not limited
	rec := do(r, http.MethodGet, "/api/v1/withdrawals/"+walletAddr, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerbosity(t *testing.T) {
	r, _ := newTestRouter(t, 100)
	defer logger.SetLevel("info")

	rec := do(r, http.MethodPut, "/api/v1/verbosity", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPut, "/api/v1/verbosity?v=debug", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/verbosity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "debug", decode(t, rec)["verbosity"])
}

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		err    error
		status int
	}{
		{game.ErrInvalidAmount, http.StatusBadRequest},
		{fmt.Errorf("wrapped - %w", game.ErrInvalidWallet), http.StatusBadRequest},
		{game.ErrSignerMismatch, http.StatusForbidden},
		{fmt.Errorf("failed to place bet - %w", game.ErrBetPending), http.StatusConflict},
		{game.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{errors.New("rpc down"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.status, statusFor(tc.err))
		})
	}
}
