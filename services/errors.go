package services

import "errors"

var (
	// ErrEmptyTranscript rejects a call with no transcript text.
	ErrEmptyTranscript = errors.New("transcript text is empty")

	// ErrEmptyLetter rejects a letter correction request with no text.
	ErrEmptyLetter = errors.New("letter text is empty")
)
