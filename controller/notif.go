package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/nats-io/nats.go"
	"github.com/nightowlcasino/redblack/services/notif"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SendNotifs republishes notifications the wallet never acknowledged.
func SendNotifs(nc *nats.Conn, rdb *redis.Client, subj string) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		log := zap.L()
		start := time.Now()
		cors(w)

		walletAddr := params.ByName("walletAddr")
		log.Debug("SendNotifs called",
			zap.String("url_path", req.URL.Path),
			zap.String("wallet_addr", walletAddr),
		)

		if nc == nil || rdb == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "notifications are not enabled"})
			return
		}

		count, err := notif.Replay(req.Context(), nc, rdb, subj, walletAddr)
		if err != nil {
			log.Error("failed to send notification(s)",
				zap.Error(err),
				zap.Int64("durationMs", time.Since(start).Milliseconds()),
				zap.String("wallet_addr", walletAddr),
				zap.Int("total_sent", count),
			)
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error: fmt.Sprintf("failed to send some or all notification(s) to wallet address %s please try again", walletAddr),
			})
			return
		}

		log.Info("send notification(s) complete",
			zap.Int64("durationMs", time.Since(start).Milliseconds()),
			zap.String("wallet_addr", walletAddr),
			zap.Int("total_sent", count),
		)

		writeJSON(w, http.StatusOK, map[string]int{"sent": count})
	}
}
