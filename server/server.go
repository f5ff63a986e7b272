// Package server
package server

import (
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/cache"
	"github.com/zmart-protocol/vote-backend/signature"
)

// Server validates and records single votes, and answers live tally reads.
type Server struct {
	verifier    signature.Verifier
	cacheClient cache.Client

	logger *zap.Logger
}

func New() *Server {
	return &Server{}
}

func (s *Server) SetVerifier(verifier signature.Verifier) *Server {
	s.verifier = verifier
	return s
}

func (s *Server) SetCache(cache cache.Client) *Server {
	s.cacheClient = cache
	return s
}

func (s *Server) SetLogger(logger *zap.Logger) *Server {
	s.logger = logger
	return s
}
