package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrInsufficientParticipants = errors.New("not enough teams to generate a bracket")
	ErrBracketAlreadyExists     = errors.New("a bracket already exists for this tournament")
	ErrInvalidTransition        = errors.New("invalid match transition")
	ErrInvalidResult            = errors.New("invalid match result")
	ErrPersistence              = errors.New("storage failure")
)

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s %w", kind, id, ErrNotFound)
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
