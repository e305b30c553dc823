package driven

import (
	"context"
	"errors"
)

// Gate trigger failures. The authorizer only cares whether Open returned nil;
// the kinds exist for logs.
var (
	ErrGateUnreachable = errors.New("gate endpoint unreachable")
	ErrGateStatus      = errors.New("gate endpoint returned non-success status")
	ErrGateUndecodable = errors.New("gate response could not be decoded")
	ErrGateNotOpened   = errors.New("gate did not report open")
)

// GateTrigger defines the driven port for the remote gate opener. Open returns
// nil only when the remote side acknowledged that the gate opened.
type GateTrigger interface {
	Open(ctx context.Context) error
}
