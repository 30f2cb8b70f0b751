package heatmap

import "errors"

var (
	// ErrInvalidOption is returned by New for an out-of-range option.
	ErrInvalidOption = errors.New("heatmap: invalid option")

	// ErrInvalidPoint is returned for a sample with a non-finite
	// coordinate or value.
	ErrInvalidPoint = errors.New("heatmap: invalid point")

	// ErrNotInitialized is returned by frame calls made before Init.
	ErrNotInitialized = errors.New("heatmap: layer not initialized")

	// ErrNotPrepared is returned by Render when PreRender has not run
	// since Init.
	ErrNotPrepared = errors.New("heatmap: render before prerender")

	// ErrDeleted is returned by every call on a deleted layer.
	ErrDeleted = errors.New("heatmap: layer deleted")
)
