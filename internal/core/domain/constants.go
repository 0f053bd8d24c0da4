package domain

import "errors"

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")
	ErrNotCommand         = errors.New("not a command")
	ErrInvalidTime        = errors.New("invalid time expression")
	ErrUnknownStatus      = errors.New("unknown status")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
)

// DateLayout is the calendar date format of a registry snapshot.
const DateLayout = "2006-01-02"

// Unspecified is the bucket for IN members who gave no time.
const Unspecified = "unspecified"
