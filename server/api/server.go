//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package api provides the HTTP API for COVID-19 queries and agent chat.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/covid-agent/covid"
	"trpc.group/trpc-go/covid-agent/covid/query"
	"trpc.group/trpc-go/covid-agent/log"
	"trpc.group/trpc-go/covid-agent/model"
	"trpc.group/trpc-go/covid-agent/runner"
)

// DefaultUserID is used for chat requests that carry no user_id.
const DefaultUserID = "anonymous"

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is returned by POST /v1/chat.
type ChatResponse struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// Server exposes the query service over HTTP. Chat is only served when a
// runner is configured.
type Server struct {
	svc    *query.Service
	runner runner.Runner
	router *mux.Router
}

// Option configures the Server instance.
type Option func(*Server)

// WithRunner enables POST /v1/chat backed by r.
func WithRunner(r runner.Runner) Option {
	return func(s *Server) { s.runner = r }
}

// New creates the HTTP API server.
func New(svc *query.Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/summary/{country}", s.handleSummary).Methods(http.MethodGet)
	v1.HandleFunc("/trend/{country}", s.handleTrend).Methods(http.MethodGet)
	v1.HandleFunc("/compare", s.handleCompare).Methods(http.MethodGet)
	v1.HandleFunc("/vaccinations/{country}", s.handleVaccinations).Methods(http.MethodGet)
	v1.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	v1.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodOptions)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.LatestSummary(r.Context(), mux.Vars(r)["country"])
	writeResult(w, summary, err, covid.FormatSummary)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metric := q.Get("metric")
	if metric == "" {
		metric = query.MetricNewCases
	}
	window := query.DefaultWindow
	if raw := q.Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "window must be an integer")
			return
		}
		window = n
	}
	trend, err := s.svc.Trend(r.Context(), mux.Vars(r)["country"], metric, window)
	writeResult(w, trend, err, covid.FormatTrend)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var countries []string
	for _, c := range strings.Split(q.Get("countries"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			countries = append(countries, c)
		}
	}
	metric := q.Get("metric")
	if metric == "" {
		metric = query.MetricNewCases
	}
	comparison, err := s.svc.Compare(r.Context(), countries, metric)
	writeResult(w, comparison, err, covid.FormatComparison)
}

func (s *Server) handleVaccinations(w http.ResponseWriter, r *http.Request) {
	progress, err := s.svc.VaccinationProgress(r.Context(), mux.Vars(r)["country"])
	writeResult(w, progress, err, covid.FormatVaccination)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeError(w, http.StatusNotImplemented, "chat is not enabled")
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.UserID == "" {
		req.UserID = DefaultUserID
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := runner.Reply(r.Context(), s.runner, req.UserID, req.SessionID, req.Message)
	if err != nil {
		status := http.StatusBadGateway
		if model.IsQuotaExhausted(err) {
			status = http.StatusTooManyRequests
		}
		log.Errorf("chat %s/%s failed: %v", req.UserID, req.SessionID, err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Reply:     reply,
	})
}

// statusOf maps query outcomes to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, query.ErrNotFound), errors.Is(err, query.ErrNoMetricData):
		return http.StatusNotFound
	case errors.Is(err, query.ErrInvalidWindow),
		errors.Is(err, query.ErrUnknownMetric),
		errors.Is(err, query.ErrNoCountries):
		return http.StatusBadRequest
	case errors.Is(err, query.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeResult[T any](w http.ResponseWriter, v T, err error, render func(T) string) {
	if err != nil {
		status := statusOf(err)
		if status == http.StatusBadGateway {
			log.Errorf("query failed: %v", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, covid.Result{
		Status: covid.StatusSuccess,
		Data:   v,
		Text:   render(v),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, covid.Result{Status: covid.StatusFailed, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("write response: %v", err)
	}
}
