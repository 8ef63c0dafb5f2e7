package bracket

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTooFewParticipants = errors.New("a bracket needs at least two participants")
	ErrDoubleBye          = errors.New("pairing has a bye on both sides")
)

// ByePolicy decides which participants receive the round 1 byes
type ByePolicy string

const (
	// ByesTrailing pairs the shuffled participants in order and gives the byes to the last ones
	ByesTrailing ByePolicy = "trailing"
	// ByesSpread uses standard seeding, so byes go to the top seeds and are spread over the bracket
	ByesSpread ByePolicy = "spread"
)

func ParseByePolicy(s string) (ByePolicy, error) {
	switch ByePolicy(s) {
	case "", ByesTrailing:
		return ByesTrailing, nil
	case ByesSpread:
		return ByesSpread, nil
	}
	return "", fmt.Errorf("unknown bye policy %q", s)
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func BracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

func RoundCount(bracketSize int) int {
	if bracketSize <= 1 {
		return 0
	}
	return int(math.Log2(float64(bracketSize)))
}

// NextPosition is where the winner of (round, matchNumber) plays next
func NextPosition(round, matchNumber int) (int, int, Side) {
	return round + 1, (matchNumber + 1) / 2, NextSide(matchNumber)
}

func NextSide(matchNumber int) Side {
	if matchNumber%2 != 0 {
		return SideA
	}
	return SideB
}

// Pairings returns the round 1 pairings as indexes into the seeded participant
// list. A -1 marks a bye and is always on the second side.
func Pairings(count int, policy ByePolicy) [][2]int {
	size := BracketSize(count)
	if size < 2 {
		return [][2]int{}
	}

	if policy == ByesSpread {
		pairs := seedOrderPairs(size)
		for i, pair := range pairs {
			for side := range pair {
				if pair[side] >= count {
					pairs[i][side] = -1
				}
			}
			if pairs[i][0] == -1 {
				pairs[i][0], pairs[i][1] = pairs[i][1], pairs[i][0]
			}
		}
		return pairs
	}

	pairs := make([][2]int, 0, size/2)
	full := count - size/2
	for k := 0; k < full; k++ {
		pairs = append(pairs, [2]int{2 * k, 2*k + 1})
	}
	for i := 2 * full; i < count; i++ {
		pairs = append(pairs, [2]int{i, -1})
	}
	return pairs
}

// Standard seeding order: 1 v 8, 4 v 5, 2 v 7, 3 v 6 for eight slots
func seedOrderPairs(bracketSize int) [][2]int {
	rounds := []int{0}
	for len(rounds) < bracketSize {
		var nextRound []int
		currentCount := len(rounds) * 2

		for _, seed := range rounds {
			nextRound = append(nextRound, seed)
			nextRound = append(nextRound, (currentCount-1)-seed)
		}
		rounds = nextRound
	}

	pairs := make([][2]int, 0, bracketSize/2)
	for i := 0; i < len(rounds); i += 2 {
		pairs = append(pairs, [2]int{rounds[i], rounds[i+1]})
	}
	return pairs
}

// Plan is a complete bracket ready to be persisted
type Plan struct {
	TournamentID uuid.UUID
	Size         int
	Byes         int
	Rounds       int
	Entries      []Entry
	// Ordered by round, then match number
	Matches []Match
}

func (p *Plan) Round(r int) []Match {
	var out []Match
	for _, m := range p.Matches {
		if m.RoundNumber == r {
			out = append(out, m)
		}
	}
	return out
}

func (p *Plan) Match(round, matchNumber int) *Match {
	for i := range p.Matches {
		if p.Matches[i].RoundNumber == round && p.Matches[i].MatchNumber == matchNumber {
			return &p.Matches[i]
		}
	}
	return nil
}

type Builder struct {
	Policy ByePolicy
	// Shuffle permutes n elements, rand.Shuffle when nil
	Shuffle func(n int, swap func(i, j int))
	Now     func() time.Time
}

func (b Builder) shuffle(participants []Participant) {
	shuffle := b.Shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(participants), func(i, j int) {
		participants[i], participants[j] = participants[j], participants[i]
	})
}

func (b Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now().UTC()
}

// Build shuffles the participants and lays out every round of a single
// elimination bracket. Round 1 byes are completed and their winners already
// sit in round 2; every other slot past round 1 is TBD.
func (b Builder) Build(tournamentID uuid.UUID, participants []Participant) (*Plan, error) {
	if len(participants) < 2 {
		return nil, ErrTooFewParticipants
	}

	now := b.now()
	seeded := make([]Participant, len(participants))
	copy(seeded, participants)
	b.shuffle(seeded)

	entries := make([]Entry, 0, len(seeded))
	for i, p := range seeded {
		entries = append(entries, Entry{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			Kind:         p.Kind,
			RefID:        p.RefID,
			Name:         p.Name,
			LogoURL:      p.LogoURL,
			Seed:         i + 1,
			CreatedAt:    now,
		})
	}

	size := BracketSize(len(entries))
	totalRounds := RoundCount(size)
	grid := make([][]Match, totalRounds+1)

	// Significantly easier to start from the last round and work backwards
	for r := totalRounds; r >= 1; r-- {
		grid[r] = make([]Match, size>>r)

		for i := range grid[r] {
			matchOrder := i + 1
			m := Match{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				RoundNumber:  r,
				MatchNumber:  matchOrder,
				TeamAKind:    SlotTBD,
				TeamBKind:    SlotTBD,
				Status:       MatchScheduled,
				CreatedAt:    now,
				UpdatedAt:    now,
			}

			if r < totalRounds {
				_, parentOrder, side := NextPosition(r, matchOrder)
				parentID := grid[r+1][parentOrder-1].ID
				m.WinnerNextMatchID = &parentID
				m.WinnerNextSlot = &side
			}

			grid[r][i] = m
		}
	}

	pairs := Pairings(len(entries), b.Policy)
	if len(pairs) != len(grid[1]) {
		return nil, fmt.Errorf("expected %d round 1 pairings, got %d", len(grid[1]), len(pairs))
	}

	for k, pair := range pairs {
		match := &grid[1][k]
		if pair[0] < 0 && pair[1] < 0 {
			return nil, fmt.Errorf("round 1 match %d: %w", match.MatchNumber, ErrDoubleBye)
		}

		for i, side := range []Side{SideA, SideB} {
			if pair[i] < 0 {
				match.SetSlot(side, Slot{Kind: SlotBye})
			} else {
				match.SetSlot(side, ParticipantSlot(entries[pair[i]].ID))
			}
		}

		// Check for byes immediately
		winnerSide, isBye := byeWinner(match)
		if !isBye {
			continue
		}

		winner := match.Slot(winnerSide)
		match.Status = MatchCompleted
		match.IsBye = true
		match.WinnerSlot = &winnerSide
		match.WinnerEntryID = winner.EntryID
		match.CompletedAt = &now

		if totalRounds > 1 {
			_, nextOrder, nextSide := NextPosition(1, match.MatchNumber)
			grid[2][nextOrder-1].SetSlot(nextSide, winner)
		}
	}

	plan := &Plan{
		TournamentID: tournamentID,
		Size:         size,
		Byes:         size - len(entries),
		Rounds:       totalRounds,
		Entries:      entries,
		Matches:      make([]Match, 0, size-1),
	}
	for r := 1; r <= totalRounds; r++ {
		plan.Matches = append(plan.Matches, grid[r]...)
	}

	return plan, nil
}

func byeWinner(m *Match) (Side, bool) {
	a, b := m.Slot(SideA), m.Slot(SideB)
	switch {
	case a.Resolved() && b.Kind == SlotBye:
		return SideA, true
	case b.Resolved() && a.Kind == SlotBye:
		return SideB, true
	}
	return "", false
}
