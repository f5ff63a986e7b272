// Package api
package api

import (
	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/types"
)

func (s *Server) SchedulerStatus(c echo.Context) error {
	return BuildResponse(c).OK(s.scheduler.Status())
}

// TriggerAggregation runs one aggregation cycle for both kinds synchronously.
// Administrative use only.
func (s *Server) TriggerAggregation(c echo.Context) error {
	if c.Request().Header.Get("Authorization") != s.authorizationSecret {
		return BuildResponse(c).Unauthorized()
	}
	results, err := s.scheduler.TriggerImmediate(c.Request().Context())
	if err != nil {
		s.logger.Error("manual aggregation failed", zap.Error(err))
		return BuildResponse(c).InternalServer()
	}
	return BuildResponse(c).OK(results)
}

func (s *Server) Settlements(c echo.Context) error {
	if c.Request().Header.Get("Authorization") != s.authorizationSecret {
		return BuildResponse(c).Unauthorized()
	}
	if s.dbClient == nil {
		return BuildResponse(c).OK([]*types.Settlement{})
	}
	kind := types.VoteKind(c.QueryParam("kind"))
	if kind != "" && !kind.Valid() {
		return BuildResponse(c).BadRequest()
	}
	page, limit := getPagingOption(c)
	settlements, err := s.dbClient.Settlements(c.Request().Context(), kind, page, limit)
	if err != nil {
		s.logger.Error("cannot list settlements", zap.Error(err))
		return BuildResponse(c).InternalServer()
	}
	return BuildResponse(c).OK(settlements)
}
