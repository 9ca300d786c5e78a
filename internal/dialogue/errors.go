package dialogue

import "errors"

var (
	// ErrInvalidInput is returned for an empty user turn, before any
	// provider is called.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMatcherUnavailable is returned when candidates could not be
	// ranked. The previous state is left intact and the turn can be retried.
	ErrMatcherUnavailable = errors.New("matcher unavailable")

	// ErrNoCandidates is returned when the catalog has nothing to offer.
	ErrNoCandidates = errors.New("no candidate drinks in catalog")

	// ErrConversationDone is returned by Resume for a finished session.
	ErrConversationDone = errors.New("conversation already finished")
)
