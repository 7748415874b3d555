package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/services/game"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type betRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Token  string          `json:"token"`
	Color  string          `json:"color"`
}

type connectResponse struct {
	Claim   game.Claim `json:"claim"`
	Pending bool       `json:"pending"`
}

// Connect is called when a wallet connects. It claims waiting winnings and
// resumes polling a bet left pending by an earlier session.
func Connect(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		log := zap.L()
		start := time.Now()
		cors(w)

		walletAddr := params.ByName("walletAddr")
		log.Debug("Connect called", zap.String("url_path", req.URL.Path), zap.String("wallet_addr", walletAddr))

		claim, err := g.ClaimWinnings(req.Context(), walletAddr)
		if err != nil {
			if statusFor(err) == http.StatusBadRequest {
				writeError(w, err)
				return
			}
			log.Error("failed to claim winnings on connect", zap.Error(err), zap.String("wallet_addr", walletAddr))
		}

		pending, err := g.ResumePending(req.Context(), walletAddr)
		if err != nil {
			log.Error("failed to resume pending bet", zap.Error(err), zap.String("wallet_addr", walletAddr))
			writeError(w, err)
			return
		}

		log.Info("wallet connected",
			zap.Int64("durationMs", time.Since(start).Milliseconds()),
			zap.String("wallet_addr", walletAddr),
			zap.Bool("pending", pending),
			zap.Bool("claimed", claim.HasResolved),
		)

		writeJSON(w, http.StatusOK, connectResponse{Claim: claim, Pending: pending})
	}
}

// Spin places a bet, or reports on the pending one when there is one.
func Spin(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		log := zap.L()
		start := time.Now()
		cors(w)

		walletAddr := params.ByName("walletAddr")

		var body betRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body - %s", err)})
			return
		}

		token, err := bahamut.ParseToken(body.Token)
		if err != nil {
			writeError(w, err)
			return
		}

		bet := game.Bet{Amount: body.Amount, Token: token, Color: bahamut.Color(body.Color)}
		res, err := g.Spin(req.Context(), walletAddr, bet)
		if err != nil {
			log.Error("spin failed", zap.Error(err), zap.String("wallet_addr", walletAddr))
			writeError(w, err)
			return
		}

		log.Info("spin complete",
			zap.Int64("durationMs", time.Since(start).Milliseconds()),
			zap.String("wallet_addr", walletAddr),
			zap.String("result", string(res.Outcome)),
		)

		writeJSON(w, http.StatusOK, res)
	}
}

func PendingBet(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		cors(w)

		info, err := g.PendingBet(req.Context(), params.ByName("walletAddr"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// CheckResult runs one result check. 202 means the bet is still pending.
func CheckResult(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		cors(w)

		walletAddr := params.ByName("walletAddr")
		res, err := g.CheckResult(req.Context(), walletAddr)
		if err != nil {
			zap.L().Error("failed to check bet result", zap.Error(err), zap.String("wallet_addr", walletAddr))
			writeError(w, err)
			return
		}
		if res == nil {
			writeJSON(w, http.StatusAccepted, map[string]string{"result": string(game.OutcomePending)})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func ResetBet(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		cors(w)

		walletAddr := params.ByName("walletAddr")
		claim, err := g.ResetPendingBet(req.Context(), walletAddr)
		if err != nil {
			zap.L().Error("failed to reset pending bet", zap.Error(err), zap.String("wallet_addr", walletAddr))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, claim)
	}
}

func LastResult(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		cors(w)

		walletAddr := params.ByName("walletAddr")
		res, ok := g.LastResult(walletAddr)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no result for wallet address " + walletAddr})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
