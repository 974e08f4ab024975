// Package kujo serves a running instance over HTTP: snapshots as JSON, a server-sent event
// stream, a WebSocket for two-way control and commands posted as JSON messages.
package kujo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/r3labs/sse/v2"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"nyiyui.ca/hato/railroad/doc"
	"nyiyui.ca/hato/railroad/runtime"
	"nyiyui.ca/hato/railroad/sim"
	"nyiyui.ca/hato/railroad/store"
)

const snapshotStream = "snapshot"

// maxCommandSize bounds a posted command; a load carries a whole document.
const maxCommandSize = 8 << 20

type Server struct {
	i        *runtime.Instance
	store    *store.Store
	s        *sse.Server
	upgrader websocket.Upgrader
	handler  http.Handler
}

type Options struct {
	// AllowedOrigins is passed to CORS and checked on websocket handshakes; empty allows any.
	AllowedOrigins []string
	// Store holds named snapshots for /saves. Nil disables those routes.
	Store *store.Store
}

// NewServer serves i until ctx is done.
func NewServer(ctx context.Context, i *runtime.Instance, opts Options) *Server {
	allowedOrigins := opts.AllowedOrigins
	s := &Server{
		i:     i,
		store: opts.Store,
		s:     sse.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
	s.s.AutoReplay = false
	s.s.CreateStream(snapshotStream)

	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/schema", s.handleSchema)
	mux.HandleFunc("/command", s.handleCommand)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/events", s.s)
	mux.HandleFunc("/saves", s.handleSaves)
	mux.HandleFunc("/saves/", s.handleSave)
	s.handler = cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}).Handler(mux)

	ch := make(chan runtime.Snapshot, 1)
	i.Snapshots.Subscribe("kujo sse", ch)
	go s.forward(ctx, ch)
	return s
}

// originAllowed applies the CORS origin list to websocket handshakes. Requests without an
// Origin header come from non-browser clients and are allowed.
func originAllowed(allowed []string, origin string) bool {
	if len(allowed) == 0 || origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func (s *Server) forward(ctx context.Context, ch chan runtime.Snapshot) {
	defer s.s.Close()
	defer s.i.Snapshots.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			data, err := json.Marshal(snap)
			if err != nil {
				zap.S().Errorw("marshal snapshot", "err", err)
				continue
			}
			s.s.TryPublish(snapshotStream, &sse.Event{
				Data: data,
			})
		}
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Debugw("write response", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.i.Latest())
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, doc.Schema())
}

func readCommand(r io.Reader) (sim.Msg, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxCommandSize))
	if err != nil {
		return nil, err
	}
	msg, err := sim.UnmarshalMsg(data)
	if err != nil {
		return nil, fmt.Errorf("command: %w", err)
	}
	return msg, nil
}

// handleCommand queues a message. It is accepted, not applied: the result arrives as the next
// snapshot.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	msg, err := readCommand(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if err := s.i.Send(r.Context(), msg); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	zap.S().Debugw("command queued", "type", msg.Type(), "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusAccepted)
}

// handleWS sends the latest snapshot and then every new one; text frames from the client are
// commands.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Infow("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch := make(chan runtime.Snapshot, 4)
	s.i.Snapshots.Subscribe("kujo ws "+r.RemoteAddr, ch)
	defer s.i.Snapshots.Unsubscribe(ch)

	go func() {
		defer cancel()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := sim.UnmarshalMsg(payload)
			if err != nil {
				zap.S().Infow("discarding malformed command", "remote", r.RemoteAddr, "err", err)
				continue
			}
			if err := s.i.Send(ctx, msg); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.i.Latest()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			if err := conn.WriteJSON(snap); err != nil {
				zap.S().Debugw("websocket write", "remote", r.RemoteAddr, "err", err)
				return
			}
		}
	}
}

func storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleSaves lists the saved snapshot names.
func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	names, err := s.store.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// handleSave serves /saves/<name>: PUT saves the live model, GET returns the document, DELETE
// removes it and POST /saves/<name>/load queues it as a load.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/saves/")
	load := strings.HasSuffix(name, "/load")
	name = strings.TrimSuffix(name, "/load")
	if name == "" || strings.Contains(name, "/") {
		http.NotFound(w, r)
		return
	}
	switch {
	case load && r.Method == http.MethodPost:
		data, err := s.store.LoadRaw(name)
		if err != nil {
			writeJSON(w, storeStatus(err), errorResponse{Error: err.Error()})
			return
		}
		if err := s.i.Send(r.Context(), sim.Load{Doc: data}); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
		zap.S().Infow("snapshot load queued", "name", name)
		w.WriteHeader(http.StatusAccepted)
	case load:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	case r.Method == http.MethodPut:
		if err := s.store.Save(name, s.i.Model().Scenario); err != nil {
			writeJSON(w, storeStatus(err), errorResponse{Error: err.Error()})
			return
		}
		zap.S().Infow("snapshot saved", "name", name)
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodGet:
		data, err := s.store.LoadRaw(name)
		if err != nil {
			writeJSON(w, storeStatus(err), errorResponse{Error: err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	case r.Method == http.MethodDelete:
		if err := s.store.Delete(name); err != nil {
			writeJSON(w, storeStatus(err), errorResponse{Error: err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
