package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID        uuid.UUID  `db:"id"`
	Name      string     `db:"name"`
	Logo      *string    `db:"logo"`
	CaptainID *uuid.UUID `db:"captain_id"`
	CreatedAt time.Time  `db:"created_at"`
}

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// Registration points at either a team or a solo player, never both
type Registration struct {
	ID           uuid.UUID          `db:"id"`
	TournamentID uuid.UUID          `db:"tournament_id"`
	TeamID       *uuid.UUID         `db:"team_id"`
	UserID       *uuid.UUID         `db:"user_id"`
	Status       RegistrationStatus `db:"status"`
	CreatedAt    time.Time          `db:"created_at"`
}
