package storage

import (
	"context"
	"time"

	"github.com/iudanet/traderouter/internal/models"
)

// PilotStorage defines interface for the sign-in ledger.
// The ledger records who signed in and when; it never holds tokens.
type PilotStorage interface {
	// UpsertPilot records a sign-in
	// Creates the pilot on first sign-in, otherwise updates name and last_seen
	// first_seen is never changed after creation
	UpsertPilot(ctx context.Context, pilot *models.Pilot) error

	// GetPilot retrieves pilot by character ID
	// Returns ErrPilotNotFound if pilot doesn't exist
	GetPilot(ctx context.Context, id int64) (*models.Pilot, error)

	// TouchPilot updates last_seen and last known solar system
	// Returns ErrPilotNotFound if pilot doesn't exist
	TouchPilot(ctx context.Context, id int64, systemID int32, at time.Time) error

	// CountPilots returns number of distinct pilots that ever signed in
	CountPilots(ctx context.Context) (int, error)

	// Ping checks that storage is reachable
	Ping(ctx context.Context) error
}
