// Copyright 2020 Adam Chalkley
//
// https://github.com/atc0005/check-cert
//
// Licensed under the MIT License. See LICENSE file in the project root for
// full license information.

package chain

import "sync"

// Session holds the two pieces of process-wide mutable state the trust
// workflow needs: the "already-asked" fingerprint set and the
// no-more-questions latch. Both are monotonic (grow-only / one-way),
// so concurrent writers only ever race towards the same idempotent end
// state; Session serializes writes anyway to keep that property visible
// rather than relying on it.
//
// A Session is threaded explicitly through Walk calls rather than kept as
// a package global, so tests can observe and reset it deterministically.
type Session struct {
	mu              sync.Mutex
	asked           map[[20]byte]struct{}
	noMoreQuestions bool
}

// NewSession returns an empty Session.
func NewSession() *Session {
	return &Session{asked: make(map[[20]byte]struct{})}
}

// WasAsked reports whether the user was already prompted to trust the
// given root certificate during this session.
func (s *Session) WasAsked(cert *Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.asked[cert.Fingerprint()]
	return ok
}

// MarkAsked records that the user was prompted for cert. Idempotent.
func (s *Session) MarkAsked(cert *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked[cert.Fingerprint()] = struct{}{}
}

// NoMoreQuestions reports whether a prior MarkTrusted call latched the
// session against further interactive prompts (a not-supported or
// canceled trust decision both latch it).
func (s *Session) NoMoreQuestions() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noMoreQuestions
}

// LatchNoMoreQuestions sets the latch. One-way: never cleared.
func (s *Session) LatchNoMoreQuestions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noMoreQuestions = true
}
