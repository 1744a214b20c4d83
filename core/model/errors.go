package model

import "errors"

// ErrInvalidInput marks malformed incident data. A batch containing one
// invalid record is rejected as a whole.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnknownSeverity is returned for severity tokens outside the closed set.
var ErrUnknownSeverity = errors.New("unknown severity")
