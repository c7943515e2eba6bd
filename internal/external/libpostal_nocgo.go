//go:build !cgo

package external

import (
	"errors"

	"go.uber.org/zap"
)

// NewLibpostalExtractor requires cgo for the libpostal bindings. Without it
// callers fall back to Disabled or the HTTP extractor.
func NewLibpostalExtractor(_ *zap.Logger) (CandidateExtractor, error) {
	return nil, errors.New("libpostal extractor unavailable: built without cgo")
}
