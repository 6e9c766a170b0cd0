package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/swift-nav/flow/internal/domain"
)

// throttleDelay is the fixed sleep spec.md section 5 prescribes for a
// Throttling-class transient error before retrying the same operation.
const throttleDelay = 5 * time.Second

// withRetry implements the transient-error combinator of spec.md
// sections 5 and 7: Throttling errors sleep and retry indefinitely;
// UnknownResource errors retry immediately after logging (treated as
// a benign race); AlreadyExists errors are swallowed and treated as
// success; anything else propagates to the caller.
func withRetry(ctx context.Context, op func() error) error {
	for {
		err := op()
		if err == nil {
			return nil
		}

		var already *domain.AlreadyExistsError
		if errors.As(err, &already) {
			return nil
		}

		var transient *domain.TransientError
		if errors.As(err, &transient) {
			switch transient.Class {
			case domain.Throttling:
				log.Printf("throttled, retrying in %s: %v", throttleDelay, err)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(throttleDelay):
				}
				continue
			case domain.UnknownResource:
				log.Printf("unknown resource, retrying: %v", err)
				continue
			}
		}

		return err
	}
}
