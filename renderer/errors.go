package renderer

import "errors"

var (
	ErrNoScene          = errors.New("renderer: no scene defined")
	ErrNoCamera         = errors.New("renderer: no camera defined")
	ErrInvalidFrameSize = errors.New("renderer: frame width and height must be greater than zero")
	ErrNoSamples        = errors.New("renderer: samples per pixel must be greater than zero")
)
