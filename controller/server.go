package controller

import (
	"net/http"
	"strconv"
	"time"

	http_no "github.com/nightowlcasino/redblack/http"
)

func NewServer(handler http.Handler, port int) *http_no.Server {
	return http_no.NewServer(":"+strconv.Itoa(port),
		handler,
		http_no.ReadTimeout(1*time.Minute),
		http_no.WriteTimeout(1*time.Minute),
		http_no.IdleTimeout(2*time.Minute))
}
