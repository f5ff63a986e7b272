// Package types
package types

import (
	"errors"
)

var ErrInvalidSubject = errors.New("invalid subject id")
var ErrInvalidChoice = errors.New("choice not in kind vocabulary")
var ErrInvalidSignature = errors.New("signature verification failed")
var ErrAlreadyVoted = errors.New("voter already voted on this subject")
var ErrStoreUnavailable = errors.New("vote store unavailable")
