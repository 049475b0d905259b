package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/devharshthakur/rdns.toys/geo"
	"github.com/devharshthakur/rdns.toys/toys"
)

// adminServer exposes read-only diagnostics over HTTP: a healthcheck,
// the registered services, and each service's dump snapshot.
type adminServer struct {
	registry *toys.Registry
	index    *geo.Index
	started  time.Time
}

func newAdminServer(addr string, registry *toys.Registry, index *geo.Index) *http.Server {
	a := &adminServer{
		registry: registry,
		index:    index,
		started:  time.Now(),
	}
	return &http.Server{Addr: addr, Handler: a.router()}
}

func (a *adminServer) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthcheck", a.handleHealthcheck).Methods(http.MethodGet)
	r.HandleFunc("/services", a.handleServices).Methods(http.MethodGet)
	r.HandleFunc("/services/{suffix}/dump", a.handleDump).Methods(http.MethodGet)
	return r
}

func (a *adminServer) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(a.started).Round(time.Second).String(),
		"locations": a.index.Count(),
		"hits":      a.registry.Hits(),
	})
}

func (a *adminServer) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"services": a.registry.Suffixes()})
}

func (a *adminServer) handleDump(w http.ResponseWriter, r *http.Request) {
	suffix := mux.Vars(r)["suffix"]
	data, err := a.registry.Dump(suffix)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode admin response")
	}
}
