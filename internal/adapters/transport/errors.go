package transport

import (
	"errors"
	"fmt"

	"github.com/okian/talentflow/internal/domain/model"
)

// Sentinel kinds for transport errors.
var (
	ErrTransport = errors.New("transport failure")
	ErrNoRoute   = errors.New("no transport for channel")
	ErrNoAddress = errors.New("recipient has no address")
)

// Error is a failed delivery attempt. It matches ErrTransport.
type Error struct {
	Channel model.Channel
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Channel, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes every *Error match ErrTransport.
func (e *Error) Is(target error) bool { return target == ErrTransport }

// Wrap returns err as an *Error unless it already is one.
func Wrap(ch model.Channel, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Channel: ch, Err: err}
}
