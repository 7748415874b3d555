package controller

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	jsoniter "github.com/json-iterator/go"
	"github.com/nightowlcasino/redblack/services/game"
	"go.uber.org/zap"
)

const (
	// HeaderContentType is the Content-Type header key.
	HeaderContentType = "Content-Type"
	// ContentTypeJSON is the application/json MIME type.
	ContentTypeJSON = "application/json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func cors(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func opts(methods string) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		cors(w)
		w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
		w.WriteHeader(http.StatusOK)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidWallet),
		errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidToken),
		errors.Is(err, game.ErrInvalidColor):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrSignerMismatch):
		return http.StatusForbidden
	case errors.Is(err, game.ErrBetPending):
		return http.StatusConflict
	case errors.Is(err, game.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
