package http

import (
	"net/http"
)

// Routes bundles the handlers mounted on the API mux. Nil handlers are skipped.
type Routes struct {
	Rankings *RankingHandler
	Tokens   *TokenHandler
	Test     *TestHandler
	Stream   http.HandlerFunc
}

func NewRouter(rt Routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if h := rt.Rankings; h != nil {
		mux.HandleFunc("/api/rankings", h.GetRankings)
		mux.HandleFunc("/api/run", h.GetLatestRun)
		mux.HandleFunc("/api/analysis", h.GetAnalysis)
		mux.HandleFunc("/api/failures", h.GetFailures)
		mux.HandleFunc("/api/history", h.GetHistory)
		mux.HandleFunc("/api/scan", h.TriggerScan)
	}
	if h := rt.Tokens; h != nil {
		mux.HandleFunc("/api/tokens/register", h.HandleRegisterToken)
		mux.HandleFunc("/api/tokens/unregister", h.HandleUnregisterToken)
		mux.HandleFunc("/api/tokens/count", h.HandleGetTokenCount)
	}
	if h := rt.Test; h != nil {
		mux.HandleFunc("/api/test-notification", h.SendTestNotification)
	}
	if rt.Stream != nil {
		mux.HandleFunc("/ws", rt.Stream)
	}
	return mux
}
