package models

import (
	"errors"
	"fmt"
)

var (
	ErrPositionAlreadyOpen    = errors.New("an open position already exists for this account")
	ErrPositionAlreadySettled = errors.New("position is already settled")
	ErrPositionNotFound       = errors.New("position not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrInvalidLimit           = errors.New("invalid account limit")
)

func errInvalidLimit(field string) error {
	return fmt.Errorf("%w: %s must be positive", ErrInvalidLimit, field)
}
