package service

import "errors"

// Sentinel kinds for session service errors.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoSponsors       = errors.New("no sponsors selected")
	ErrBuilderNotFound  = errors.New("builder not found")
	ErrBackpressure     = errors.New("fetch queue saturated")
	ErrUnknownFetchKind = errors.New("unknown fetch kind")
)
