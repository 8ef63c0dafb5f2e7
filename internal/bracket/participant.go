package bracket

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantKind string

const (
	TeamParticipant ParticipantKind = "team"
	SoloParticipant ParticipantKind = "solo"
)

// Participant is a team or a solo player resolved from a registration.
// RefID is the team id for teams and the user id for solo players.
type Participant struct {
	Kind    ParticipantKind
	RefID   uuid.UUID
	Name    string
	LogoURL *string
}

func (p Participant) Key() string {
	return string(p.Kind) + ":" + p.RefID.String()
}

// Entry is a participant frozen into a generated bracket. Match slots point at entries.
type Entry struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	TournamentID uuid.UUID       `db:"tournament_id" json:"tournament_id"`
	Kind         ParticipantKind `db:"kind" json:"kind"`
	RefID        uuid.UUID       `db:"ref_id" json:"ref_id"`
	Name         string          `db:"name" json:"name"`
	LogoURL      *string         `db:"logo_url" json:"logo_url,omitempty"`
	Seed         int             `db:"seed" json:"seed"`
	CreatedAt    time.Time       `db:"created_at" json:"-"`
}
