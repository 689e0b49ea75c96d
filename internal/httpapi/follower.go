package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kvrep/internal/replication"
	"kvrep/internal/storage"
)

// FollowerServer serves the follower surface: replicated writes from
// the leader and local reads.
type FollowerServer struct {
	applier *replication.Applier
	store   storage.Store
	nodeID  string
}

// NewFollowerServer creates the follower HTTP server.
func NewFollowerServer(applier *replication.Applier, store storage.Store, nodeID string) *FollowerServer {
	return &FollowerServer{applier: applier, store: store, nodeID: nodeID}
}

// Handler returns the HTTP handler with all follower routes.
func (s *FollowerServer) Handler() http.Handler {
	r := newRouter()
	r.Post("/replicate", s.Replicate)
	r.Get("/read/{key}", s.Read)
	r.Get("/keys", s.Keys)
	r.Get("/all", s.All)
	r.Get("/health", s.Health)
	r.Delete("/clear", s.Clear)
	return r
}

type replicateRequest struct {
	Key       string  `json:"key"`
	Value     string  `json:"value"`
	Timestamp float64 `json:"timestamp"`
}

type replicateResponse struct {
	Accepted   bool   `json:"accepted"`
	Applied    bool   `json:"applied"`
	Key        string `json:"key"`
	FollowerID string `json:"follower_id"`
	Message    string `json:"message"`
}

// Replicate receives a replicated write from the leader. A stale write
// is accepted with applied=false; only malformed requests are errors.
func (s *FollowerServer) Replicate(w http.ResponseWriter, r *http.Request) {
	var body replicateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON")
		return
	}
	if body.Key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "key is required")
		return
	}

	res := s.applier.Apply(body.Key, body.Value, body.Timestamp)
	writeJSON(w, http.StatusOK, replicateResponse{
		Accepted:   res.Accepted,
		Applied:    res.Applied,
		Key:        body.Key,
		FollowerID: s.nodeID,
		Message:    res.Message,
	})
}

type followerReadResponse struct {
	Key       string   `json:"key"`
	Value     *string  `json:"value"`
	Found     bool     `json:"found"`
	Timestamp *float64 `json:"timestamp"`
}

// Read serves the key from the local store; followers may return stale
// data, by the eventual-consistency contract. The follower response
// also exposes the record's timestamp.
func (s *FollowerServer) Read(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	resp := followerReadResponse{Key: key}
	if rec, ok := s.store.Get(key); ok {
		resp.Value = &rec.Value
		resp.Timestamp = &rec.Timestamp
		resp.Found = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *FollowerServer) Keys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys":        s.store.Keys(),
		"follower_id": s.nodeID,
	})
}

func (s *FollowerServer) All(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":        s.store.Snapshot(),
		"follower_id": s.nodeID,
	})
}

func (s *FollowerServer) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"role":        "follower",
		"follower_id": s.nodeID,
		"keys_count":  s.store.Len(),
	})
}

func (s *FollowerServer) Clear(w http.ResponseWriter, r *http.Request) {
	s.store.Clear()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "cleared",
		"follower_id": s.nodeID,
	})
}
