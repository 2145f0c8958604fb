package stacks

import sharederrors "github.com/khanhnv2901/seca-stacks/internal/shared/errors"

// Errors surfaced by this package. Executor implementations wrap their
// failures with ErrRemoteEvaluation or ErrProbeException so the detector can
// tell a broken context from a misbehaving probe.
var (
	ErrRemoteEvaluation       = sharederrors.ErrRemoteEvaluation
	ErrProbeException         = sharederrors.ErrProbeException
	ErrMalformedNetworkLog    = sharederrors.ErrMalformedNetworkLog
	ErrNilExecutor            = sharederrors.ErrNilExecutor
	ErrInvalidCatalog         = sharederrors.ErrInvalidCatalog
	ErrInvalidServerSignature = sharederrors.ErrInvalidServerSignature
)
