// Package server exposes the pipeline as a JSON API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/paul-lee-attorney/sm4trace/codec"
	"github.com/paul-lee-attorney/sm4trace/internal/config"
	"github.com/paul-lee-attorney/sm4trace/modes"
	"github.com/paul-lee-attorney/sm4trace/pipeline"
)

// apiError is returned by handlers and rendered by apiHandler.ServeHTTP.
type apiError struct {
	Where  string
	What   string
	Kind   string
	Err    error
	Status int
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Where, e.What, e.Err)
}

type apiHandler func(http.ResponseWriter, *http.Request) *apiError

func (fn apiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := fn(w, r); err != nil {
		log.Printf("Error: %v", err.Error())
		msg := err.What
		if err.Err != nil && err.Status < http.StatusInternalServerError {
			msg = err.Err.Error()
		}
		writeJSON(w, err.Status, errorResponse{Error: msg, Kind: err.Kind})
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type cipherRequest struct {
	Text   string          `json:"text"`
	Key    string          `json:"key"`
	IV     string          `json:"iv"`
	Config pipeline.Config `json:"config"`
	// Trace asks for the per-block round states in the response.
	Trace bool `json:"trace"`
}

type cipherResponse struct {
	Direction  modes.Direction     `json:"direction"`
	Output     string              `json:"output"`
	FinalBytes codec.HexBytes      `json:"finalBytes"`
	RoundKeys  []string            `json:"roundKeys"`
	Blocks     []modes.BlockResult `json:"blocks,omitempty"`
	Steps      []pipeline.Step     `json:"steps"`
	TotalSteps int                 `json:"totalSteps"`
}

type server struct {
	cfg config.Config
}

// New returns the router serving /api and /healthz.
func New(cfg config.Config) http.Handler {
	s := &server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/defaults", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, pipeline.DefaultConfig())
		})
		r.Method(http.MethodPost, "/encrypt", apiHandler(s.encrypt))
		r.Method(http.MethodPost, "/decrypt", apiHandler(s.decrypt))
	})

	return r
}

func (s *server) encrypt(w http.ResponseWriter, r *http.Request) *apiError {
	return s.run(w, r, "Encrypt", pipeline.Encrypt)
}

func (s *server) decrypt(w http.ResponseWriter, r *http.Request) *apiError {
	return s.run(w, r, "Decrypt", pipeline.Decrypt)
}

type cipherFunc func(text, keyHex string, cfg pipeline.Config, ivHex string, opts ...pipeline.Option) (*pipeline.Result, error)

func (s *server) run(w http.ResponseWriter, r *http.Request, where string, fn cipherFunc) *apiError {
	var req cipherRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxInputBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apiError{Where: where, What: "request body too large", Kind: "too-large", Err: err, Status: http.StatusRequestEntityTooLarge}
		}
		return &apiError{Where: where, What: "malformed request body", Kind: "request", Err: err, Status: http.StatusBadRequest}
	}

	res, err := fn(req.Text, req.Key, req.Config.WithDefaults(), req.IV)
	if err != nil {
		return &apiError{Where: where, What: "cipher failed", Kind: pipeline.Kind(err), Err: err, Status: http.StatusBadRequest}
	}

	resp := cipherResponse{
		Direction:  res.Direction,
		Output:     res.Output,
		FinalBytes: res.FinalBytes,
		RoundKeys:  res.RoundKeys.Hex(),
		Steps:      res.Steps,
		TotalSteps: res.TotalSteps,
	}
	if req.Trace {
		resp.Blocks = res.Blocks
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: failed to encode response: %v", err)
	}
}
