package web

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/geNAZt/zoneheat/pkg/alarm"
	"github.com/geNAZt/zoneheat/pkg/arbiter"
	"github.com/geNAZt/zoneheat/pkg/meter"
	"github.com/geNAZt/zoneheat/pkg/zone"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server exposes the controller state over HTTP.
type Server struct {
	addr   string
	zones  map[string]*zone.Controller
	arb    *arbiter.Arbiter
	alarms *alarm.ActiveAlarms
	meters *meter.Cache
}

func New(addr string, zones map[string]*zone.Controller, arb *arbiter.Arbiter, alarms *alarm.ActiveAlarms, meters *meter.Cache) *Server {
	return &Server{
		addr:   addr,
		zones:  zones,
		arb:    arb,
		alarms: alarms,
		meters: meters,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/api/zones", s.listZones).Methods("GET")
	r.HandleFunc("/api/zones/{id}", s.getZone).Methods("GET")
	r.HandleFunc("/api/zones/{id}/target", s.setTarget).Methods("POST")
	r.HandleFunc("/api/zones/{id}/mode", s.setMode).Methods("POST")
	r.HandleFunc("/api/zones/{id}/force", s.force).Methods("POST")
	r.HandleFunc("/api/phases", s.phases).Methods("GET")
	r.HandleFunc("/api/alarms", s.listAlarms).Methods("GET")
	r.HandleFunc("/api/meters", s.listMeters).Methods("GET")
	return r
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup) {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: handlers.LoggingHandler(os.Stdout, s.Router()),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Infof("starting http server on %s", s.addr)
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logrus.Errorf("http server error: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) listZones(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]any, len(s.zones))
	for id, c := range s.zones {
		out[id] = c.Status()
	}
	writeJSON(w, out)
}

func (s *Server) getZone(w http.ResponseWriter, r *http.Request) {
	c, ok := s.zones[mux.Vars(r)["id"]]
	if !ok {
		http.Error(w, "no such zone", http.StatusNotFound)
		return
	}
	writeJSON(w, c.Status())
}

func (s *Server) setTarget(w http.ResponseWriter, r *http.Request) {
	c, ok := s.zones[mux.Vars(r)["id"]]
	if !ok {
		http.Error(w, "no such zone", http.StatusNotFound)
		return
	}
	var body struct {
		Target float64 `json:"target"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.SetTarget(body.Target)
	writeJSON(w, c.Status())
}

func (s *Server) setMode(w http.ResponseWriter, r *http.Request) {
	c, ok := s.zones[mux.Vars(r)["id"]]
	if !ok {
		http.Error(w, "no such zone", http.StatusNotFound)
		return
	}
	var body struct {
		Mode string `json:"mode"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m, err := zone.ParseMode(body.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c.SetMode(m)
	writeJSON(w, c.Status())
}

func (s *Server) force(w http.ResponseWriter, r *http.Request) {
	c, ok := s.zones[mux.Vars(r)["id"]]
	if !ok {
		http.Error(w, "no such zone", http.StatusNotFound)
		return
	}
	var body struct {
		On bool `json:"on"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.On {
		s.arb.ForceOn(c.Handle())
	} else {
		s.arb.ForceOff(c.Handle())
	}
	writeJSON(w, c.Status())
}

func (s *Server) phases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.arb.Snapshot())
}

func (s *Server) listAlarms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.alarms.Active())
}

func (s *Server) listMeters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.meters.All())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logrus.Errorf("error encoding response: %s", err)
	}
}
