package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/traderouter/internal/models"
	"github.com/iudanet/traderouter/internal/server/storage"
)

// UpsertPilot records a sign-in
func (s *Storage) UpsertPilot(ctx context.Context, pilot *models.Pilot) error {
	if pilot.ID <= 0 || pilot.Name == "" {
		return storage.ErrInvalidPilot
	}

	firstSeen := pilot.FirstSeen
	if firstSeen.IsZero() {
		firstSeen = time.Now().UTC()
	}
	lastSeen := pilot.LastSeen
	if lastSeen.IsZero() {
		lastSeen = firstSeen
	}

	query := `
		INSERT INTO pilots (id, name, first_seen, last_seen, last_system_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			last_seen = excluded.last_seen,
			last_system_id = CASE
				WHEN excluded.last_system_id > 0 THEN excluded.last_system_id
				ELSE pilots.last_system_id
			END
	`

	_, err := s.db.ExecContext(ctx, query,
		pilot.ID,
		pilot.Name,
		firstSeen,
		lastSeen,
		pilot.LastSystemID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pilot: %w", err)
	}

	return nil
}

// GetPilot retrieves pilot by character ID
func (s *Storage) GetPilot(ctx context.Context, id int64) (*models.Pilot, error) {
	query := `
		SELECT id, name, first_seen, last_seen, last_system_id
		FROM pilots
		WHERE id = ?
	`

	pilot := &models.Pilot{}

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&pilot.ID,
		&pilot.Name,
		&pilot.FirstSeen,
		&pilot.LastSeen,
		&pilot.LastSystemID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPilotNotFound
		}
		return nil, fmt.Errorf("failed to get pilot: %w", err)
	}

	return pilot, nil
}

// TouchPilot updates last_seen and last known solar system
func (s *Storage) TouchPilot(ctx context.Context, id int64, systemID int32, at time.Time) error {
	query := `UPDATE pilots SET last_seen = ?, last_system_id = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, at, systemID, id)
	if err != nil {
		return fmt.Errorf("failed to touch pilot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrPilotNotFound
	}

	return nil
}

// CountPilots returns number of distinct pilots that ever signed in
func (s *Storage) CountPilots(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pilots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pilots: %w", err)
	}
	return count, nil
}

// Ping checks that the database connection is alive
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
