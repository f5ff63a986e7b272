// Package api
package api

import (
	"github.com/labstack/echo"

	"github.com/zmart-protocol/vote-backend/types"
)

func (s *Server) Ping(c echo.Context) error {
	return BuildResponse(c).OK("pong")
}

func (s *Server) SubmitProposalVote(c echo.Context) error {
	return s.submitVote(c, types.KindProposal)
}

func (s *Server) SubmitDisputeVote(c echo.Context) error {
	return s.submitVote(c, types.KindDispute)
}

func (s *Server) submitVote(c echo.Context, kind types.VoteKind) error {
	var submission types.VoteSubmission
	if err := c.Bind(&submission); err != nil {
		return BuildResponse(c).BadRequest()
	}
	ctx := c.Request().Context()
	receipt, err := s.votes.SubmitVote(ctx, kind, c.Param("subjectId"), &submission)
	if err != nil {
		return BuildResponse(c).Err(err)
	}
	return BuildResponse(c).OK(receipt)
}

func (s *Server) ProposalVotes(c echo.Context) error {
	return s.voteTally(c, types.KindProposal)
}

func (s *Server) DisputeVotes(c echo.Context) error {
	return s.voteTally(c, types.KindDispute)
}

// voteTally returns the current unsettled counts. A subject nobody voted on
// is a zero tally with 200, never a 404.
func (s *Server) voteTally(c echo.Context, kind types.VoteKind) error {
	ctx := c.Request().Context()
	tl, err := s.votes.VoteTally(ctx, kind, c.Param("subjectId"))
	if err != nil {
		return BuildResponse(c).Err(err)
	}
	return BuildResponse(c).OK(tl)
}
