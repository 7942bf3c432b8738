//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides in-memory session service implementation.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/covid-agent/event"
	"trpc.group/trpc-go/covid-agent/session"
)

const (
	defaultSessionEventLimit = 100
)

var _ session.Service = (*SessionService)(nil)

// appSessions maps userID to that user's sessions within one app.
type appSessions struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*session.Session
}

func newAppSessions() *appSessions {
	return &appSessions{
		sessions: make(map[string]map[string]*session.Session),
	}
}

type serviceOpts struct {
	// sessionEventLimit is the limit of events in a session.
	sessionEventLimit int
}

// SessionService provides an in-memory implementation of session.Service.
type SessionService struct {
	mu   sync.RWMutex
	apps map[string]*appSessions
	opts serviceOpts
}

// ServiceOpt is the option for the in-memory session service.
type ServiceOpt func(*serviceOpts)

// WithSessionEventLimit sets the limit of events in a session.
// Older events are dropped first. Zero or less keeps every event.
func WithSessionEventLimit(limit int) ServiceOpt {
	return func(opts *serviceOpts) {
		opts.sessionEventLimit = limit
	}
}

// NewSessionService creates a new in-memory session service.
func NewSessionService(options ...ServiceOpt) *SessionService {
	opts := serviceOpts{
		sessionEventLimit: defaultSessionEventLimit,
	}
	for _, option := range options {
		option(&opts)
	}
	return &SessionService{
		apps: make(map[string]*appSessions),
		opts: opts,
	}
}

func (s *SessionService) getAppSessions(appName string) (*appSessions, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appName]
	return app, ok
}

func (s *SessionService) getOrCreateAppSessions(appName string) *appSessions {
	if app, ok := s.getAppSessions(appName); ok {
		return app
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[appName]
	if !ok {
		app = newAppSessions()
		s.apps[appName] = app
	}
	return app
}

// CreateSession creates a new session with the given parameters.
func (s *SessionService) CreateSession(
	ctx context.Context,
	key session.Key,
	opts ...session.Option,
) (*session.Session, error) {
	if err := key.CheckUserKey(); err != nil {
		return nil, err
	}
	app := s.getOrCreateAppSessions(key.AppName)

	if key.SessionID == "" {
		key.SessionID = uuid.New().String()
	}
	now := time.Now()
	sess := &session.Session{
		ID:        key.SessionID,
		AppName:   key.AppName,
		UserID:    key.UserID,
		Events:    []event.Event{},
		UpdatedAt: now,
		CreatedAt: now,
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	if app.sessions[key.UserID] == nil {
		app.sessions[key.UserID] = make(map[string]*session.Session)
	}
	app.sessions[key.UserID][key.SessionID] = sess
	return copySession(sess), nil
}

// GetSession retrieves a session by app name, user ID, and session ID.
func (s *SessionService) GetSession(
	ctx context.Context,
	key session.Key,
	opts ...session.Option,
) (*session.Session, error) {
	if err := key.CheckSessionKey(); err != nil {
		return nil, err
	}
	opt := applyOptions(opts...)
	app, ok := s.getAppSessions(key.AppName)
	if !ok {
		return nil, nil
	}

	app.mu.RLock()
	defer app.mu.RUnlock()
	sess, ok := app.sessions[key.UserID][key.SessionID]
	if !ok {
		return nil, nil
	}
	copied := copySession(sess)
	applyGetSessionOptions(copied, opt)
	return copied, nil
}

// ListSessions returns all sessions for a given app and user, oldest first.
func (s *SessionService) ListSessions(
	ctx context.Context,
	userKey session.UserKey,
	opts ...session.Option,
) ([]*session.Session, error) {
	if err := userKey.CheckUserKey(); err != nil {
		return nil, err
	}
	opt := applyOptions(opts...)
	app, ok := s.getAppSessions(userKey.AppName)
	if !ok {
		return []*session.Session{}, nil
	}

	app.mu.RLock()
	defer app.mu.RUnlock()
	sessList := make([]*session.Session, 0, len(app.sessions[userKey.UserID]))
	for _, sess := range app.sessions[userKey.UserID] {
		copied := copySession(sess)
		applyGetSessionOptions(copied, opt)
		sessList = append(sessList, copied)
	}
	sort.Slice(sessList, func(i, j int) bool {
		return sessList[i].CreatedAt.Before(sessList[j].CreatedAt)
	})
	return sessList, nil
}

// DeleteSession removes a session from storage.
func (s *SessionService) DeleteSession(
	ctx context.Context,
	key session.Key,
	opts ...session.Option,
) error {
	if err := key.CheckSessionKey(); err != nil {
		return err
	}
	app, ok := s.getAppSessions(key.AppName)
	if !ok {
		return nil
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	delete(app.sessions[key.UserID], key.SessionID)
	if len(app.sessions[key.UserID]) == 0 {
		delete(app.sessions, key.UserID)
	}
	return nil
}

// AppendEvent appends an event to both the caller's copy and the stored session.
func (s *SessionService) AppendEvent(
	ctx context.Context,
	sess *session.Session,
	evt *event.Event,
	opts ...session.Option,
) error {
	if sess == nil || evt == nil {
		return fmt.Errorf("append event: session and event are required")
	}
	key := session.Key{
		AppName:   sess.AppName,
		UserID:    sess.UserID,
		SessionID: sess.ID,
	}
	if err := key.CheckSessionKey(); err != nil {
		return err
	}
	app, ok := s.getAppSessions(key.AppName)
	if !ok {
		return fmt.Errorf("app %s: %w", key.AppName, session.ErrSessionNotFound)
	}

	app.mu.Lock()
	defer app.mu.Unlock()
	stored, ok := app.sessions[key.UserID][key.SessionID]
	if !ok {
		return fmt.Errorf("%s: %w", key.SessionID, session.ErrSessionNotFound)
	}
	s.appendEvent(stored, evt)
	if stored != sess {
		s.appendEvent(sess, evt)
	}
	return nil
}

// Close closes the service.
func (s *SessionService) Close() error {
	return nil
}

func (s *SessionService) appendEvent(sess *session.Session, evt *event.Event) {
	sess.EventMu.Lock()
	defer sess.EventMu.Unlock()
	sess.Events = append(sess.Events, *evt)
	if s.opts.sessionEventLimit > 0 && len(sess.Events) > s.opts.sessionEventLimit {
		sess.Events = sess.Events[len(sess.Events)-s.opts.sessionEventLimit:]
	}
	sess.UpdatedAt = time.Now()
}

func copySession(sess *session.Session) *session.Session {
	sess.EventMu.RLock()
	defer sess.EventMu.RUnlock()
	copied := &session.Session{
		ID:        sess.ID,
		AppName:   sess.AppName,
		UserID:    sess.UserID,
		Events:    make([]event.Event, len(sess.Events)),
		UpdatedAt: sess.UpdatedAt,
		CreatedAt: sess.CreatedAt,
	}
	copy(copied.Events, sess.Events)
	return copied
}

func applyGetSessionOptions(sess *session.Session, opts *session.Options) {
	if opts.EventNum > 0 && len(sess.Events) > opts.EventNum {
		sess.Events = sess.Events[len(sess.Events)-opts.EventNum:]
	}
}

func applyOptions(opts ...session.Option) *session.Options {
	opt := &session.Options{}
	for _, o := range opts {
		o(opt)
	}
	return opt
}
