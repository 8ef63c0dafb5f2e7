package views

import (
	"sort"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
)

const (
	ByeLabel = "BYE"
	TBDLabel = "TBD"
)

type BracketData struct {
	Tournament *bracket.Tournament
	Rounds     map[int][]bracket.Match
	RoundNums  []int
	EntryMap   map[uuid.UUID]bracket.Entry
}

func PrepareBracketData(tournament *bracket.Tournament, entries []bracket.Entry, matches []bracket.Match) BracketData {
	entryMap := make(map[uuid.UUID]bracket.Entry)
	for _, e := range entries {
		entryMap[e.ID] = e
	}

	rounds := make(map[int][]bracket.Match)
	var roundNums []int
	for _, m := range matches {
		if _, exists := rounds[m.RoundNumber]; !exists {
			roundNums = append(roundNums, m.RoundNumber)
		}
		rounds[m.RoundNumber] = append(rounds[m.RoundNumber], m)
	}

	sort.Ints(roundNums)
	for _, r := range roundNums {
		sort.Slice(rounds[r], func(i, j int) bool {
			return rounds[r][i].MatchNumber < rounds[r][j].MatchNumber
		})
	}

	return BracketData{
		Tournament: tournament,
		Rounds:     rounds,
		RoundNums:  roundNums,
		EntryMap:   entryMap,
	}
}

// SlotLabel is what a bracket cell shows for one side of a match
func (d BracketData) SlotLabel(m bracket.Match, side bracket.Side) string {
	slot := m.Slot(side)
	switch slot.Kind {
	case bracket.SlotBye:
		return ByeLabel
	case bracket.SlotParticipant:
		if slot.EntryID != nil {
			if e, ok := d.EntryMap[*slot.EntryID]; ok {
				return e.Name
			}
		}
	}
	return TBDLabel
}

// RoundName counts back from the final
func (d BracketData) RoundName(round int) string {
	total := len(d.RoundNums)
	if d.Tournament != nil && d.Tournament.BracketRounds > 0 {
		total = d.Tournament.BracketRounds
	}
	switch total - round {
	case 0:
		return "Final"
	case 1:
		return "Semifinals"
	case 2:
		return "Quarterfinals"
	}
	return "Round " + itoa(round)
}

func (d BracketData) Champion() *bracket.Entry {
	if d.Tournament == nil || d.Tournament.ChampionEntryID == nil {
		return nil
	}
	e, ok := d.EntryMap[*d.Tournament.ChampionEntryID]
	if !ok {
		return nil
	}
	return &e
}
