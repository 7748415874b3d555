package controller

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/nightowlcasino/redblack/logger"
	"go.uber.org/zap"
)

type verbosity struct {
	Level string `json:"verbosity"`
}

func Verbosity() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		level := logger.GetLevel()
		zap.L().Debug("current logging level", zap.String("level", level))

		writeJSON(w, http.StatusOK, verbosity{Level: level})
	}
}

// SetVerbosity allows the user to remotely modify the verbosity of all log messages
// Expects a "v" parameter in the query string of a PUT request:
//
//	curl -X PUT http://host:port/api/v1/verbosity?v=debug
//
// options are:
//
//	debug
//	info
//	warn
//	error
func SetVerbosity() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		level := r.URL.Query().Get("v")
		if level == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing or incorrect query parameter 'v='"})
			return
		}
		// If level was not set to any of the above it will default to info level
		logger.SetLevel(level)

		zap.L().Info("updating logging level", zap.String("level", level))

		w.WriteHeader(http.StatusNoContent)
	}
}
