package session

import "errors"

var (
	// ErrAlreadySubmitted is returned by every mutation of a submitted
	// session.
	ErrAlreadySubmitted = errors.New("session already submitted")

	// ErrNotInProgress is returned when answering or navigating a session
	// that has not been started.
	ErrNotInProgress = errors.New("session not in progress")

	// ErrNoQuestionsAvailable is returned by Start when the filter matches
	// no questions at all.
	ErrNoQuestionsAvailable = errors.New("no questions available for the selected filters")
)
