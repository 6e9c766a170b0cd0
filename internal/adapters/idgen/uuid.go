// Package idgen implements ports.UidGenerator against google/uuid, the
// same library the teacher stack already carries for job identifiers.
package idgen

import (
	"github.com/google/uuid"

	"github.com/swift-nav/flow/internal/domain"
	"github.com/swift-nav/flow/internal/ports"
)

// UUIDGenerator mints random-v4 Uids.
type UUIDGenerator struct{}

func NewUUIDGenerator() ports.UidGenerator {
	return UUIDGenerator{}
}

func (UUIDGenerator) New() domain.Uid {
	return domain.Uid(uuid.NewString())
}
