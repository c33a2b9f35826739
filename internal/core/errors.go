package core

import "errors"

var (
	ErrUnknownCategory = errors.New("unknown issue category")
	ErrUnknownStrategy = errors.New("unknown fix strategy")
	ErrNilResult       = errors.New("agent returned no result")
)
