package controller

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/services/game"
	"go.uber.org/zap"
)

type networkResponse struct {
	Backend   string              `json:"backend"`
	Network   bahamut.ChainConfig `json:"network"`
	Contracts bahamut.Contracts   `json:"contracts"`
}

func Network(d Deps) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		cors(w)
		writeJSON(w, http.StatusOK, networkResponse{
			Backend:   d.Backend,
			Network:   d.Network,
			Contracts: d.Contracts,
		})
	}
}

func Balances(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		cors(w)

		balances, err := g.Balances(req.Context(), params.ByName("walletAddr"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, balances)
	}
}

func PendingWithdrawals(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		cors(w)

		wd, err := g.PendingWithdrawals(req.Context(), params.ByName("walletAddr"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wd)
	}
}

type withdrawResponse struct {
	Withdrawn bool   `json:"withdrawn"`
	TxHash    string `json:"txHash,omitempty"`
}

func Withdraw(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		cors(w)

		walletAddr := params.ByName("walletAddr")
		hash, err := g.Withdraw(req.Context(), walletAddr)
		if err != nil {
			zap.L().Error("failed to withdraw funds", zap.Error(err), zap.String("wallet_addr", walletAddr))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, withdrawResponse{Withdrawn: hash != "", TxHash: hash})
	}
}

func History(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		cors(w)

		var limit int
		if v := req.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "query parameter 'limit' must be a positive integer"})
				return
			}
			limit = n
		}

		history, err := g.History(req.Context(), params.ByName("walletAddr"), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, history)
	}
}

func TxStatus(g *game.Service) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		cors(w)

		info, err := g.TxStatus(req.Context(), params.ByName("txHash"))
		if err != nil {
			zap.L().Warn("failed to get transaction status", zap.Error(err), zap.String("tx_hash", params.ByName("txHash")))
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}
