package controller

import (
	"net/http"
	"sync/atomic"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/julienschmidt/httprouter"
	"github.com/nats-io/nats.go"
	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/services/game"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps are what the API handlers are served from. Nats and Redis may be nil
// when notifications are disabled.
type Deps struct {
	Game      *game.Service
	Backend   string
	Network   bahamut.ChainConfig
	Contracts bahamut.Contracts
	Nats      *nats.Conn
	Redis     *redis.Client
	NotifSubj string
	// RateLimit is requests per second per client on the bet routes.
	RateLimit float64
}

type Router struct {
	http.Handler

	ready atomic.Bool
}

// Ready makes /healthz report ok. Call it once the services are started.
func (r *Router) Ready() {
	r.ready.Store(true)
}

func NewRouter(d Deps) *Router {
	h := httprouter.New()
	h.RedirectTrailingSlash = false
	h.RedirectFixedPath = false

	r := &Router{
		Handler: h,
	}

	rate := d.RateLimit
	if rate <= 0 {
		rate = 5
	}
	lmt := tollbooth.NewLimiter(rate, nil)

	h.GET("/api/v1/network", Network(d))
	h.OPTIONS("/api/v1/network", opts("GET"))

	h.POST("/api/v1/sessions/:walletAddr", limit(lmt, Connect(d.Game)))
	h.OPTIONS("/api/v1/sessions/:walletAddr", opts("POST"))

	h.POST("/api/v1/bets/:walletAddr", limit(lmt, Spin(d.Game)))
	h.OPTIONS("/api/v1/bets/:walletAddr", opts("POST"))
	h.GET("/api/v1/bets/:walletAddr/pending", PendingBet(d.Game))
	h.OPTIONS("/api/v1/bets/:walletAddr/pending", opts("GET"))
	h.POST("/api/v1/bets/:walletAddr/check", limit(lmt, CheckResult(d.Game)))
	h.OPTIONS("/api/v1/bets/:walletAddr/check", opts("POST"))
	h.POST("/api/v1/bets/:walletAddr/reset", limit(lmt, ResetBet(d.Game)))
	h.OPTIONS("/api/v1/bets/:walletAddr/reset", opts("POST"))
	h.GET("/api/v1/bets/:walletAddr/result", LastResult(d.Game))
	h.OPTIONS("/api/v1/bets/:walletAddr/result", opts("GET"))

	h.GET("/api/v1/balances/:walletAddr", Balances(d.Game))
	h.OPTIONS("/api/v1/balances/:walletAddr", opts("GET"))

	h.GET("/api/v1/withdrawals/:walletAddr", PendingWithdrawals(d.Game))
	h.POST("/api/v1/withdrawals/:walletAddr", limit(lmt, Withdraw(d.Game)))
	h.OPTIONS("/api/v1/withdrawals/:walletAddr", opts("GET, POST"))

	h.GET("/api/v1/history/:walletAddr", History(d.Game))
	h.OPTIONS("/api/v1/history/:walletAddr", opts("GET"))

	h.GET("/api/v1/tx/:txHash", TxStatus(d.Game))
	h.OPTIONS("/api/v1/tx/:txHash", opts("GET"))

	h.GET("/api/v1/notifs/:walletAddr", SendNotifs(d.Nats, d.Redis, d.NotifSubj))
	h.OPTIONS("/api/v1/notifs/:walletAddr", opts("GET"))

	h.GET("/api/v1/verbosity", Verbosity())
	h.PUT("/api/v1/verbosity", SetVerbosity())

	h.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	h.GET("/healthz", r.health())

	return r
}

func (r *Router) health() httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		if !r.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// limit rejects requests over the per client rate with 429.
func limit(lmt *limiter.Limiter, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		if httpErr := tollbooth.LimitByRequest(lmt, w, req); httpErr != nil {
			cors(w)
			writeJSON(w, httpErr.StatusCode, errorResponse{Error: httpErr.Message})
			return
		}
		next(w, req, params)
	}
}
