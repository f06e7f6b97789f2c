package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. timeout
// bounds a full request/response cycle.
func New(addr string, handler http.Handler, timeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
}
