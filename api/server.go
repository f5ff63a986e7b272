// Package api
package api

import (
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/db"
	"github.com/zmart-protocol/vote-backend/scheduler"
	"github.com/zmart-protocol/vote-backend/server"
)

type Server struct {
	authorizationSecret string

	votes     *server.Server
	scheduler *scheduler.Scheduler
	dbClient  db.Client

	logger *zap.Logger
}

func NewServer() *Server {
	return &Server{}
}

func (s *Server) SetSecret(secret string) *Server {
	s.authorizationSecret = secret
	return s
}

func (s *Server) SetVotes(votes *server.Server) *Server {
	s.votes = votes
	return s
}

func (s *Server) SetScheduler(sched *scheduler.Scheduler) *Server {
	s.scheduler = sched
	return s
}

func (s *Server) SetStorage(dbClient db.Client) *Server {
	s.dbClient = dbClient
	return s
}

func (s *Server) SetLogger(logger *zap.Logger) *Server {
	s.logger = logger
	return s
}
