package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) so the orchestrator can translate them into run or
// record outcomes without string matching.
//
// - ErrNotFound: record or token does not exist in the backing store
// - ErrConflict: write lost to a concurrent modification
// - ErrUnavailable: store or directory temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
