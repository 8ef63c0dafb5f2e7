package main

import (
	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/service"
	"github.com/google/uuid"
)

type slotResponse struct {
	Kind    bracket.SlotKind `json:"kind"`
	EntryID *uuid.UUID       `json:"entry_id,omitempty"`
	Name    string           `json:"name"`
}

type matchResponse struct {
	ID          uuid.UUID           `json:"id"`
	Round       int                 `json:"round"`
	Match       int                 `json:"match"`
	TeamA       slotResponse        `json:"team_a"`
	TeamB       slotResponse        `json:"team_b"`
	Status      bracket.MatchStatus `json:"status"`
	Ready       bool                `json:"ready"`
	IsBye       bool                `json:"is_bye"`
	Winner      *bracket.Side       `json:"winner,omitempty"`
	ScoreA      int                 `json:"score_a"`
	ScoreB      int                 `json:"score_b"`
	Notes       *string             `json:"notes,omitempty"`
	NextMatchID *uuid.UUID          `json:"next_match_id,omitempty"`
	NextSlot    *bracket.Side       `json:"next_slot,omitempty"`
}

type roundResponse struct {
	Round   int             `json:"round"`
	Matches []matchResponse `json:"matches"`
}

type tournamentResponse struct {
	ID              uuid.UUID                `json:"id"`
	Title           string                   `json:"title"`
	Game            string                   `json:"game"`
	Status          bracket.TournamentStatus `json:"status"`
	Rounds          int                      `json:"rounds"`
	ChampionEntryID *uuid.UUID               `json:"champion_entry_id,omitempty"`
}

type bracketResponse struct {
	Tournament tournamentResponse `json:"tournament"`
	Entries    []bracket.Entry    `json:"entries"`
	Rounds     []roundResponse    `json:"rounds"`
}

type generateResponse struct {
	Message string `json:"message"`
	Size    int    `json:"size"`
	Byes    int    `json:"byes"`
	Rounds  int    `json:"rounds"`
	Matches int    `json:"matches"`
}

type advancementResponse struct {
	Match               matchResponse  `json:"match"`
	Destination         *matchResponse `json:"destination,omitempty"`
	TournamentCompleted bool           `json:"tournament_completed"`
	ChampionEntryID     *uuid.UUID     `json:"champion_entry_id,omitempty"`
}

func newTournamentResponse(t *bracket.Tournament) tournamentResponse {
	return tournamentResponse{
		ID:              t.ID,
		Title:           t.Title,
		Game:            t.Game,
		Status:          t.Status,
		Rounds:          t.BracketRounds,
		ChampionEntryID: t.ChampionEntryID,
	}
}

func newMatchResponse(m *bracket.Match, names map[uuid.UUID]string) matchResponse {
	slot := func(side bracket.Side) slotResponse {
		s := m.Slot(side)
		out := slotResponse{Kind: s.Kind, EntryID: s.EntryID}
		switch s.Kind {
		case bracket.SlotBye:
			out.Name = "BYE"
		case bracket.SlotParticipant:
			if s.EntryID != nil {
				out.Name = names[*s.EntryID]
			}
		default:
			out.Name = "TBD"
		}
		return out
	}

	return matchResponse{
		ID:          m.ID,
		Round:       m.RoundNumber,
		Match:       m.MatchNumber,
		TeamA:       slot(bracket.SideA),
		TeamB:       slot(bracket.SideB),
		Status:      m.Status,
		Ready:       m.Ready(),
		IsBye:       m.IsBye,
		Winner:      m.WinnerSlot,
		ScoreA:      m.ScoreA,
		ScoreB:      m.ScoreB,
		Notes:       m.Notes,
		NextMatchID: m.WinnerNextMatchID,
		NextSlot:    m.WinnerNextSlot,
	}
}

func entryNames(entries []bracket.Entry) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(entries))
	for _, e := range entries {
		names[e.ID] = e.Name
	}
	return names
}

func newBracketResponse(data *service.BracketData) bracketResponse {
	names := entryNames(data.Entries)

	resp := bracketResponse{
		Tournament: newTournamentResponse(data.Tournament),
		Entries:    data.Entries,
		Rounds:     []roundResponse{},
	}
	if resp.Entries == nil {
		resp.Entries = []bracket.Entry{}
	}

	// Matches come ordered by round, then match number
	for i := range data.Matches {
		m := &data.Matches[i]
		if n := len(resp.Rounds); n == 0 || resp.Rounds[n-1].Round != m.RoundNumber {
			resp.Rounds = append(resp.Rounds, roundResponse{Round: m.RoundNumber})
		}
		last := &resp.Rounds[len(resp.Rounds)-1]
		last.Matches = append(last.Matches, newMatchResponse(m, names))
	}
	return resp
}
