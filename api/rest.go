// Package api
package api

import (
	"github.com/labstack/echo"
)

type restDefinition struct {
	method      string
	path        string
	fn          func(c echo.Context) error
	middlewares []echo.MiddlewareFunc
}

func bind(gr *echo.Group, srv *Server) {
	apis := []restDefinition{
		{
			method:      echo.GET,
			path:        "/ping",
			fn:          srv.Ping,
			middlewares: nil,
		},
		// Votes
		{
			method: echo.POST,
			path:   "/votes/proposal/:subjectId",
			fn:     srv.SubmitProposalVote,
		},
		{
			method: echo.GET,
			path:   "/votes/proposal/:subjectId",
			fn:     srv.ProposalVotes,
		},
		{
			method: echo.POST,
			path:   "/votes/dispute/:subjectId",
			fn:     srv.SubmitDisputeVote,
		},
		{
			method: echo.GET,
			path:   "/votes/dispute/:subjectId",
			fn:     srv.DisputeVotes,
		},
		// Scheduler
		{
			method: echo.GET,
			path:   "/scheduler/status",
			fn:     srv.SchedulerStatus,
		},
		// Admin sector
		{
			method: echo.POST,
			path:   "/scheduler/trigger",
			fn:     srv.TriggerAggregation,
		},
		{
			method: echo.GET,
			// Query params: ?kind=proposal&page=0&limit=25
			path: "/settlements",
			fn:   srv.Settlements,
		},
	}
	for _, api := range apis {
		gr.Add(api.method, api.path, api.fn, api.middlewares...)
	}
}
