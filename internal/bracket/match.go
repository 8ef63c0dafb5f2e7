package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchCompleted MatchStatus = "completed"
)

type SlotKind string

const (
	SlotParticipant SlotKind = "participant"
	SlotBye         SlotKind = "bye"
	SlotTBD         SlotKind = "tbd"
	SlotEmpty       SlotKind = "empty"
)

type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

func (s Side) Opposite() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

type Slot struct {
	Kind    SlotKind   `json:"kind"`
	EntryID *uuid.UUID `json:"entry_id,omitempty"`
}

func ParticipantSlot(entryID uuid.UUID) Slot {
	return Slot{Kind: SlotParticipant, EntryID: &entryID}
}

func (s Slot) Resolved() bool {
	return s.Kind == SlotParticipant && s.EntryID != nil
}

type Match struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`

	// (round, match number) is the position in the tree, numbering restarts every round
	RoundNumber int `db:"round_number"`
	MatchNumber int `db:"match_number"`

	TeamAKind SlotKind   `db:"team_a_kind"`
	TeamAID   *uuid.UUID `db:"team_a_id"`
	TeamBKind SlotKind   `db:"team_b_kind"`
	TeamBID   *uuid.UUID `db:"team_b_id"`

	Status        MatchStatus `db:"status"`
	WinnerSlot    *Side       `db:"winner_slot"`
	WinnerEntryID *uuid.UUID  `db:"winner_entry_id"`
	ScoreA        int         `db:"score_a"`
	ScoreB        int         `db:"score_b"`
	Notes         *string     `db:"notes"`
	IsBye         bool        `db:"is_bye"`

	WinnerNextMatchID *uuid.UUID `db:"winner_next_match_id"`
	WinnerNextSlot    *Side      `db:"winner_next_slot"`

	CompletedAt *time.Time `db:"completed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (m *Match) Slot(side Side) Slot {
	kind, id := m.TeamAKind, m.TeamAID
	if side == SideB {
		kind, id = m.TeamBKind, m.TeamBID
	}
	if kind == "" {
		kind = SlotEmpty
	}
	return Slot{Kind: kind, EntryID: id}
}

func (m *Match) SetSlot(side Side, slot Slot) {
	if side == SideB {
		m.TeamBKind, m.TeamBID = slot.Kind, slot.EntryID
		return
	}
	m.TeamAKind, m.TeamAID = slot.Kind, slot.EntryID
}

// Ready reports whether the match can be played: scheduled with both sides known
func (m *Match) Ready() bool {
	return m.Status == MatchScheduled && m.Slot(SideA).Resolved() && m.Slot(SideB).Resolved()
}

func (m *Match) IsWinner(side Side) bool {
	return m.Status == MatchCompleted && m.WinnerSlot != nil && *m.WinnerSlot == side
}

func (m *Match) IsLoser(side Side) bool {
	return m.Status == MatchCompleted && m.WinnerSlot != nil && *m.WinnerSlot != side
}
