package decal

import "errors"

var (
	ErrDestroyed          = errors.New("decal: system destroyed")
	ErrUnknownCameraEvent = errors.New("decal: unknown camera event")
)
