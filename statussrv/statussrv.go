// Package statussrv exposes a Supervisor over HTTP: a status report poll
// endpoint and a raw line-injection endpoint, in the shape of
// server.Server/server.RouteTable and generichttp/ascii's raw-communicator
// injection, adapted from one-axis-at-a-time motion control to one
// line/one report at a time.
package statussrv

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/weftlabs/enginecore/server"
	"github.com/weftlabs/enginecore/supervisor"
)

// strPayload mirrors ascii.go's server.StrT: a single string field, used
// to decode the posted line.
type strPayload struct {
	Str string `json:"str"`
}

// statusPayload is the status poll response body.
type statusPayload struct {
	Report string `json:"report"`
}

// okPayload is returned by the transition endpoints.
type okPayload struct {
	OK bool `json:"ok"`
}

// StatusServer wraps a Supervisor with an HTTP route table. The Supervisor
// is not safe for concurrent use on its own (spec §5 treats it as
// single-threaded outside the Stepper/ISR boundary), so every handler here
// serializes through mu — the same role transport.Host's RunUntilClosed
// goroutine plays for a wire connection.
type StatusServer struct {
	*server.Server

	mu sync.Mutex
	sv *supervisor.Supervisor
}

// New returns a StatusServer with its route table populated, ready for
// BindRoutes.
func New(sv *supervisor.Supervisor, urlStem string) *StatusServer {
	s := &StatusServer{sv: sv}
	s.Server = &server.Server{URLStem: urlStem}
	s.Server.RouteTable = server.RouteTable{
		"status":      s.handleStatus,
		"line":        s.handleLine,
		"hold":        s.handleHold,
		"cycle-start": s.handleCycleStart,
		"alarm/clear": s.handleAlarmClear,
	}
	return s
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	report := s.sv.StatusReport()
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statusPayload{Report: report}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *StatusServer) handleLine(w http.ResponseWriter, r *http.Request) {
	var p strPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		r.Body.Close()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	r.Body.Close()

	s.mu.Lock()
	err := s.sv.ProcessLine(p.Str)
	s.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeOK(w, true)
}

func (s *StatusServer) handleHold(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.sv.FeedHoldNow()
	s.mu.Unlock()
	writeOK(w, ok)
}

func (s *StatusServer) handleCycleStart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.sv.CycleStartNow()
	s.mu.Unlock()
	writeOK(w, ok)
}

func (s *StatusServer) handleAlarmClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.sv.ClearAlarm()
	s.mu.Unlock()
	writeOK(w, ok)
}

func writeOK(w http.ResponseWriter, ok bool) {
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusConflict)
	}
	json.NewEncoder(w).Encode(okPayload{OK: ok})
}
