package ecsgo

import (
	"errors"
	"fmt"

	"github.com/riftworld/ecsgo/internal/classindex"
	"github.com/riftworld/ecsgo/internal/entity"
	"github.com/riftworld/ecsgo/internal/pool"
)

// ErrArchetypeMismatch indicates an entity was passed to an operation
// that required it to already belong to a live archetype — e.g.
// detaching an already-detached entity, or setting state on one. Debug
// mode panics instead of returning this error.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrArchetypeMismatch struct {
	Entity *entity.Entity
	cause  error
}

func (e *ErrArchetypeMismatch) Error() string {
	return fmt.Sprintf("ecsgo: %s does not belong to a live archetype", e.Entity)
}

func (e *ErrArchetypeMismatch) Unwrap() error { return e.cause }

// translateError wraps an internal package error with ecsgo-level
// context using %w. Errors not recognized here pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pe *pool.ErrPoolExhausted
	if errors.As(err, &pe) {
		return fmt.Errorf("ecsgo: %w", err)
	}
	var ce *classindex.ErrClassIndexExhausted
	if errors.As(err, &ce) {
		return fmt.Errorf("ecsgo: %w", err)
	}
	return err
}
