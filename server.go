package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"i4.energy/across/cellular"
)

// queryTimeout bounds all modem queries of one status request.
const queryTimeout = 10 * time.Second

// Server handles incoming HTTP requests for inspecting and controlling
// the modems held by the pool
type Server struct {
	Logger *slog.Logger
	Pool   *cellular.Pool

	once   sync.Once
	router http.Handler

	mu        sync.Mutex
	lifecycle map[uint64]*sync.Mutex
}

// Lock serializes Attach and Detach of the device with the given ID and
// returns the matching unlock function. Adapters do not synchronize their
// own lifecycle calls.
func (s *Server) Lock(id uint64) (unlock func()) {
	s.mu.Lock()
	if s.lifecycle == nil {
		s.lifecycle = make(map[uint64]*sync.Mutex)
	}
	l, ok := s.lifecycle[id]
	if !ok {
		l = &sync.Mutex{}
		s.lifecycle[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ftpStatusReporter is implemented by adapters that track FTP
// notifications.
type ftpStatusReporter interface {
	FTPGetStatus() (int, bool)
}

// ModemStatus is the JSON view of one device.
type ModemStatus struct {
	ID           uint64     `json:"id"`
	Chipset      string     `json:"chipset"`
	State        string     `json:"state"`
	IMEI         string     `json:"imei,omitempty"`
	ICCID        string     `json:"iccid,omitempty"`
	Registration *int       `json:"registration,omitempty"`
	RSSI         *int       `json:"rssi,omitempty"`
	Clock        *time.Time `json:"clock,omitempty"`
	FTPGetStatus *int       `json:"ftp_get_status,omitempty"`
	Errors       []string   `json:"errors,omitempty"`
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.once.Do(func() {
		s.router = s.routes()
	})
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/modems", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleStatus)
		r.Post("/{id}/attach", s.handleAttach)
		r.Post("/{id}/detach", s.handleDetach)
		r.Put("/{id}/clock", s.handleSetClock)
	})
	return r
}

func (s *Server) sendJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, statusCode, ErrorResponse{Message: message})
}

// device resolves the {id} URL parameter, answering 404 itself when the
// device does not exist.
func (s *Server) device(w http.ResponseWriter, r *http.Request) (cellular.Cellular, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.sendError(w, "invalid device id", http.StatusBadRequest)
		return nil, false
	}
	c, ok := s.Pool.Lookup(id)
	if !ok {
		s.sendError(w, "device not found", http.StatusNotFound)
		return nil, false
	}
	return c, true
}

func summary(c cellular.Cellular) ModemStatus {
	dev := c.Base()
	st := ModemStatus{
		ID:      dev.ID,
		Chipset: dev.Chipset,
		State:   c.State().String(),
	}
	if f, ok := c.(ftpStatusReporter); ok {
		if code, known := f.FTPGetStatus(); known {
			st.FTPGetStatus = &code
		}
	}
	return st
}

// handleList lists the devices without querying the modems
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list := s.Pool.List()
	out := make([]ModemStatus, 0, len(list))
	for _, c := range list {
		out = append(out, summary(c))
	}
	s.sendJSON(w, http.StatusOK, out)
}

// handleStatus queries the modem. Failed queries are reported in the
// errors field, the rest of the status is still returned.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.device(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	st := summary(c)
	fail := func(what string, err error) {
		s.Logger.Warn("modem query failed", "device", st.ID, "query", what, "error", err)
		st.Errors = append(st.Errors, what+": "+err.Error())
	}

	if imei, err := c.IMEI(ctx); err != nil {
		fail("imei", err)
	} else {
		st.IMEI = imei
	}
	if iccid, err := c.ICCID(ctx); err != nil {
		fail("iccid", err)
	} else {
		st.ICCID = iccid
	}
	if reg, err := c.CREG(ctx); err != nil {
		fail("registration", err)
	} else {
		st.Registration = &reg
	}
	if rssi, err := c.RSSI(ctx); err != nil {
		fail("rssi", err)
	} else {
		st.RSSI = &rssi
	}
	if clock, err := c.ClockGetTime(ctx); err != nil {
		fail("clock", err)
	} else {
		st.Clock = &clock
	}

	s.sendJSON(w, http.StatusOK, st)
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	c, ok := s.device(w, r)
	if !ok {
		return
	}
	unlock := s.Lock(c.Base().ID)
	defer unlock()

	if err := c.Attach(r.Context()); err != nil {
		s.Logger.Error("Failed to attach modem", "device", c.Base().ID, "error", err)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}
	s.sendJSON(w, http.StatusOK, summary(c))
}

func (s *Server) handleDetach(w http.ResponseWriter, r *http.Request) {
	c, ok := s.device(w, r)
	if !ok {
		return
	}
	unlock := s.Lock(c.Base().ID)
	defer unlock()

	if err := c.Detach(); err != nil {
		s.sendError(w, err.Error(), statusFor(err))
		return
	}
	s.sendJSON(w, http.StatusOK, summary(c))
}

// handleSetClock sets the modem clock from {"time": "<RFC 3339>"}
func (s *Server) handleSetClock(w http.ResponseWriter, r *http.Request) {
	c, ok := s.device(w, r)
	if !ok {
		return
	}

	var req struct {
		Time time.Time `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Time.IsZero() {
		s.sendError(w, "'time' field is required", http.StatusBadRequest)
		return
	}

	if err := c.ClockSetTime(r.Context(), req.Time); err != nil {
		s.Logger.Error("Failed to set modem clock", "device", c.Base().ID, "error", err)
		s.sendError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cellular.ErrReleased):
		return http.StatusGone
	case errors.Is(err, cellular.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
