package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator issues identifiers for elections, candidates, votes,
// appointments and outbox events.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
