package coincore

import "errors"

// Sentinel errors for the account core. Backend failures are wrapped with
// backend.ErrBackendUnavailable by the collaborators themselves; the core
// adds only the taxonomy below.
var (
	ErrUnknownAsset           = errors.New("unknown asset")
	ErrUnsupportedTransfer    = errors.New("unsupported transfer")
	ErrNoReceiveAddress       = errors.New("receive address not supported")
	ErrSecondPasswordRequired = errors.New("second password required")
)
