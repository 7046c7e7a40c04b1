package httpapi

import (
	"bytes"
	"net/http"
)

// NewHandler returns the mux wrapped in the access log.
func NewHandler(opt Options) http.Handler {
	return withAccessLog(NewMux(opt))
}

func NewMux(opt Options) *http.ServeMux {
	h := &convertHandler{opt: opt.withDefaults()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /metrics", h.handleMetrics)
	mux.HandleFunc("GET /convert", h.handleConvert)
	mux.HandleFunc("POST /convert", h.handleConvert)
	return mux
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "text/plain; charset=utf-8", "ok\n")
}

func (h *convertHandler) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	h.opt.Metrics.PrintReport(&buf)
	writeText(w, http.StatusOK, "text/plain; charset=utf-8", buf.String())
}
