package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
)

type flakyTarget struct {
	name       string
	failEvery  int64
	failStatus int
	served     atomic.Int64
	logger     *slog.Logger
}

type reply struct {
	Target  string `json:"target"`
	Request int64  `json:"request"`
	Path    string `json:"path"`
}

func newFlakyTarget(name string, failEvery, failStatus int, logger *slog.Logger) *flakyTarget {
	if failStatus < 400 {
		failStatus = http.StatusInternalServerError
	}

	return &flakyTarget{
		name:       name,
		failEvery:  int64(failEvery),
		failStatus: failStatus,
		logger:     logger,
	}
}

func (t *flakyTarget) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := t.served.Add(1)

	if t.failEvery > 0 && n%t.failEvery == 0 {
		t.logger.Info("Failing on purpose", slog.Int64("request", n), slog.Int("status", t.failStatus))
		http.Error(w, t.name+" failed on purpose", t.failStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(reply{
		Target:  t.name,
		Request: n,
		Path:    r.URL.Path,
	})
}
