package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID        uuid.UUID        `db:"id"`
	Title     string           `db:"title" json:"title"`
	Game      string           `db:"game" json:"game"`
	Status    TournamentStatus `db:"status"`
	StartDate *time.Time       `db:"start_date"`

	// Zero until a bracket has been generated
	BracketRounds   int        `db:"bracket_rounds"`
	ChampionEntryID *uuid.UUID `db:"champion_entry_id"`

	CreatedAt time.Time `db:"created_at"`
}

// IsFinalRound reports whether round is the last round of the generated bracket
func (t *Tournament) IsFinalRound(round int) bool {
	return t.BracketRounds > 0 && round == t.BracketRounds
}
