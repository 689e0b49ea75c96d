package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kvrep/internal/config"
	"kvrep/internal/quorum"
	"kvrep/internal/replication"
	"kvrep/internal/storage"
)

// LeaderServer serves the leader surface: client writes, local reads,
// and store inspection.
type LeaderServer struct {
	cfg   config.Config
	coord *replication.Coordinator
	store storage.Store
	sup   *quorum.Supervisor
}

// NewLeaderServer creates the leader HTTP server.
func NewLeaderServer(cfg config.Config, coord *replication.Coordinator, store storage.Store, sup *quorum.Supervisor) *LeaderServer {
	return &LeaderServer{cfg: cfg, coord: coord, store: store, sup: sup}
}

// Handler returns the HTTP handler with all leader routes.
func (s *LeaderServer) Handler() http.Handler {
	r := newRouter()
	r.Post("/write", s.Write)
	r.Get("/read/{key}", s.Read)
	r.Get("/keys", s.Keys)
	r.Get("/all", s.All)
	r.Get("/health", s.Health)
	r.Delete("/clear", s.Clear)
	return r
}

type writeRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type writeResponse struct {
	Success       bool   `json:"success"`
	Key           string `json:"key"`
	Value         string `json:"value"`
	Confirmations int    `json:"confirmations"`
	Message       string `json:"message"`
}

// Write replicates a key-value pair to the followers under the
// configured write quorum. Quorum failure is reported in the body, not
// as an HTTP error: the write is still durable on the leader and on
// whichever followers confirmed.
func (s *LeaderServer) Write(w http.ResponseWriter, r *http.Request) {
	var body writeRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON")
		return
	}
	if body.Key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "key is required")
		return
	}

	out := s.coord.Write(r.Context(), body.Key, body.Value)
	writeJSON(w, http.StatusOK, writeResponse{
		Success:       out.Success,
		Key:           out.Key,
		Value:         out.Value,
		Confirmations: out.Confirmations,
		Message:       out.Message,
	})
}

type readResponse struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
	Found bool    `json:"found"`
}

// Read serves the key from the local store only; no cross-node
// coordination.
func (s *LeaderServer) Read(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	resp := readResponse{Key: key}
	if rec, ok := s.store.Get(key); ok {
		resp.Value = &rec.Value
		resp.Found = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *LeaderServer) Keys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"keys": s.store.Keys()})
}

func (s *LeaderServer) All(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": s.store.Snapshot()})
}

func (s *LeaderServer) Health(w http.ResponseWriter, r *http.Request) {
	stats := s.sup.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"role":         "leader",
		"write_quorum": s.cfg.WriteQuorum,
		"followers":    s.cfg.FollowerHosts,
		"min_delay":    s.cfg.MinDelayMs,
		"max_delay":    s.cfg.MaxDelayMs,
		"replication": map[string]int64{
			"adopted":   stats.Adopted,
			"completed": stats.Completed,
			"confirmed": stats.Confirmed,
		},
	})
}

func (s *LeaderServer) Clear(w http.ResponseWriter, r *http.Request) {
	s.store.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
