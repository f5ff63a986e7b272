// Package api
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo"

	"github.com/zmart-protocol/vote-backend/types"
)

// Response codes. 12xx are vote submission failures a caller can act on.
const (
	codeOK               = 200
	codeBadRequest       = 400
	codeUnauthorized     = 401
	codeTooManyRequests  = 429
	codeInternal         = 500
	codeInvalidSubject   = 1201
	codeInvalidChoice    = 1202
	codeInvalidSignature = 1203
	codeAlreadyVoted     = 1204
)

type EchoR struct {
	c          echo.Context
	StatusCode int         `json:"-"`
	Code       int         `json:"code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data,omitempty"`
}

func BuildResponse(c echo.Context) EchoR {
	return EchoR{c: c}
}

func (r EchoR) OK(data interface{}) error {
	r.Code = codeOK
	r.Msg = "Success"
	r.Data = data
	return r.c.JSON(http.StatusOK, r)
}

func (r EchoR) BadRequest() error {
	r.Code = codeBadRequest
	r.Msg = "Bad Request"
	return r.c.JSON(http.StatusBadRequest, r)
}

func (r EchoR) Unauthorized() error {
	r.Code = codeUnauthorized
	r.Msg = "Unauthorized"
	return r.c.JSON(http.StatusUnauthorized, r)
}

func (r EchoR) TooManyRequests() error {
	r.Code = codeTooManyRequests
	r.Msg = "Rate limit exceeded"
	return r.c.JSON(http.StatusTooManyRequests, r)
}

func (r EchoR) InternalServer() error {
	r.Code = codeInternal
	r.Msg = "Server busy..."
	return r.c.JSON(http.StatusInternalServerError, r)
}

// Err maps a submission error to its machine-distinguishable 400 code.
// Anything outside the input/conflict taxonomy is a 500 with no state change.
func (r EchoR) Err(err error) error {
	switch {
	case errors.Is(err, types.ErrInvalidSubject):
		r.Code = codeInvalidSubject
	case errors.Is(err, types.ErrInvalidChoice):
		r.Code = codeInvalidChoice
	case errors.Is(err, types.ErrInvalidSignature):
		r.Code = codeInvalidSignature
	case errors.Is(err, types.ErrAlreadyVoted):
		r.Code = codeAlreadyVoted
	default:
		return r.InternalServer()
	}
	r.Msg = err.Error()
	return r.c.JSON(http.StatusBadRequest, r)
}
