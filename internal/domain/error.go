package domain

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")

	// Intake
	ErrImageRejected = errors.New("image rejected: no face detected")
	ErrJobInFlight   = errors.New("user already has a job in the queue")

	// Processing
	ErrTransformFailed    = errors.New("transformer failed")
	ErrOutputMissing      = errors.New("transformer produced no output")
	ErrEmptyReferencePool = errors.New("reference pool is empty")
)
