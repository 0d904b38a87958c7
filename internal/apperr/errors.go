package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrMalformedFrontMatter = errors.New("malformed front matter")
	ErrRemoteStore          = errors.New("remote store error")
	ErrIdentityCollision    = errors.New("identity collision")
	ErrPaginationExhausted  = errors.New("pagination cursor exhausted")
	ErrRunInProgress        = errors.New("sync run already in progress")
)

// FrontMatterError reports a front-matter block that was opened but never closed,
// or whose contents could not be parsed.
type FrontMatterError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FrontMatterError) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = "failed to find front matter end"
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FrontMatterError) Is(target error) bool {
	return target == ErrMalformedFrontMatter
}

func (e *FrontMatterError) Unwrap() error {
	return e.Err
}

// StoreError wraps a failed PageStore call.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StoreError) Is(target error) bool {
	return target == ErrRemoteStore
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
