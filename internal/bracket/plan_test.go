package bracket

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noShuffle(int, func(i, j int)) {}

func makeParticipants(names ...string) []Participant {
	participants := make([]Participant, 0, len(names))
	for _, name := range names {
		participants = append(participants, Participant{Kind: TeamParticipant, RefID: uuid.New(), Name: name})
	}
	return participants
}

func numberedParticipants(n int) []Participant {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("Team %d", i+1)
	}
	return makeParticipants(names...)
}

func TestBracketSize(t *testing.T) {
	testCases := []struct {
		count    int
		expected int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{8, 8},
		{9, 16},
		{100, 128},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d entries", tc.count), func(t *testing.T) {
			assert.Equal(t, tc.expected, BracketSize(tc.count))
		})
	}
}

func TestPairings(t *testing.T) {
	testCases := []struct {
		name     string
		count    int
		policy   ByePolicy
		expected [][2]int
	}{
		{
			name:     "2 entries",
			count:    2,
			policy:   ByesTrailing,
			expected: [][2]int{{0, 1}},
		},
		{
			name:     "3 entries",
			count:    3,
			policy:   ByesTrailing,
			expected: [][2]int{{0, 1}, {2, -1}},
		},
		{
			name:     "5 entries",
			count:    5,
			policy:   ByesTrailing,
			expected: [][2]int{{0, 1}, {2, -1}, {3, -1}, {4, -1}},
		},
		{
			name:     "6 entries",
			count:    6,
			policy:   ByesTrailing,
			expected: [][2]int{{0, 1}, {2, 3}, {4, -1}, {5, -1}},
		},
		{
			name:     "8 entries",
			count:    8,
			policy:   ByesTrailing,
			expected: [][2]int{{0, 1}, {2, 3}, {4, 5}, {6, 7}},
		},
		{
			name:     "8 entries seeded",
			count:    8,
			policy:   ByesSpread,
			expected: [][2]int{{0, 7}, {3, 4}, {1, 6}, {2, 5}},
		},
		{
			name:     "5 entries seeded",
			count:    5,
			policy:   ByesSpread,
			expected: [][2]int{{0, -1}, {3, 4}, {1, -1}, {2, -1}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Pairings(tc.count, tc.policy))
		})
	}
}

func TestPairings_NeverDoubleBye(t *testing.T) {
	for _, policy := range []ByePolicy{ByesTrailing, ByesSpread} {
		for n := 2; n <= 130; n++ {
			pairs := Pairings(n, policy)
			require.Len(t, pairs, BracketSize(n)/2, "policy %s, n=%d", policy, n)

			seen := make(map[int]int)
			for _, pair := range pairs {
				require.GreaterOrEqual(t, pair[0], 0, "policy %s, n=%d: bye on the first side", policy, n)
				seen[pair[0]]++
				if pair[1] >= 0 {
					seen[pair[1]]++
				}
			}

			require.Len(t, seen, n, "policy %s, n=%d", policy, n)
			for idx, count := range seen {
				require.Equal(t, 1, count, "policy %s, n=%d: index %d placed %d times", policy, n, idx, count)
			}
		}
	}
}

func TestSide(t *testing.T) {
	assert.Equal(t, SideB, SideA.Opposite())
	assert.Equal(t, SideA, SideB.Opposite())
	assert.True(t, SideA.Valid())
	assert.False(t, Side("").Valid())
}

func TestNextPosition(t *testing.T) {
	testCases := []struct {
		round, match int
		nextRound    int
		nextMatch    int
		expectedSlot Side
	}{
		{1, 1, 2, 1, SideA},
		{1, 2, 2, 1, SideB},
		{1, 3, 2, 2, SideA},
		{1, 4, 2, 2, SideB},
		{2, 7, 3, 4, SideA},
	}

	for _, tc := range testCases {
		r, m, side := NextPosition(tc.round, tc.match)
		assert.Equal(t, tc.nextRound, r)
		assert.Equal(t, tc.nextMatch, m)
		assert.Equal(t, tc.expectedSlot, side)
	}
}

func TestBuild_TooFewParticipants(t *testing.T) {
	_, err := Builder{}.Build(uuid.New(), makeParticipants("Solo"))
	assert.ErrorIs(t, err, ErrTooFewParticipants)

	_, err = Builder{}.Build(uuid.New(), nil)
	assert.ErrorIs(t, err, ErrTooFewParticipants)
}

func TestBuild_Structure(t *testing.T) {
	for _, policy := range []ByePolicy{ByesTrailing, ByesSpread} {
		for n := 2; n <= 33; n++ {
			t.Run(fmt.Sprintf("%s/%d participants", policy, n), func(t *testing.T) {
				participants := numberedParticipants(n)
				plan, err := Builder{Policy: policy}.Build(uuid.New(), participants)
				require.NoError(t, err)

				size := BracketSize(n)
				assert.Equal(t, size, plan.Size)
				assert.Equal(t, size-n, plan.Byes)
				assert.Equal(t, RoundCount(size), plan.Rounds)
				assert.Len(t, plan.Matches, size-1)

				for r := 1; r <= plan.Rounds; r++ {
					assert.Len(t, plan.Round(r), size>>r, "round %d", r)
				}
				assert.Len(t, plan.Round(plan.Rounds), 1)

				// Every participant sits in exactly one round 1 slot
				entryRefs := make(map[uuid.UUID]uuid.UUID)
				for _, e := range plan.Entries {
					entryRefs[e.ID] = e.RefID
				}
				occupants := make(map[uuid.UUID]int)
				byes := 0
				for _, m := range plan.Round(1) {
					for _, side := range []Side{SideA, SideB} {
						slot := m.Slot(side)
						switch slot.Kind {
						case SlotParticipant:
							occupants[entryRefs[*slot.EntryID]]++
						case SlotBye:
							byes++
						default:
							t.Fatalf("unexpected round 1 slot kind %s", slot.Kind)
						}
					}

					if m.IsBye {
						assert.Equal(t, MatchCompleted, m.Status)
						require.NotNil(t, m.WinnerEntryID)
						require.NotNil(t, m.WinnerSlot)
						assert.Equal(t, *m.Slot(*m.WinnerSlot).EntryID, *m.WinnerEntryID)
					} else {
						assert.Equal(t, MatchScheduled, m.Status)
						assert.True(t, m.Ready())
					}
				}
				assert.Equal(t, plan.Byes, byes)
				require.Len(t, occupants, n)
				for _, p := range participants {
					assert.Equal(t, 1, occupants[p.RefID], "participant %s", p.Name)
				}

				if n&(n-1) == 0 {
					assert.Zero(t, plan.Byes)
				}

				for r := 3; r <= plan.Rounds; r++ {
					for _, m := range plan.Round(r) {
						assert.Equal(t, SlotTBD, m.TeamAKind)
						assert.Equal(t, SlotTBD, m.TeamBKind)
						assert.Equal(t, MatchScheduled, m.Status)
					}
				}

				for _, m := range plan.Matches {
					if m.RoundNumber == plan.Rounds {
						assert.Nil(t, m.WinnerNextMatchID)
						continue
					}
					nextRound, nextMatch, _ := NextPosition(m.RoundNumber, m.MatchNumber)
					next := plan.Match(nextRound, nextMatch)
					require.NotNil(t, next)
					assert.Equal(t, next.ID, *m.WinnerNextMatchID)
				}
			})
		}
	}
}

func TestBuild_SixTeamScenario(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	participants := makeParticipants("A", "B", "C", "D", "E", "F")

	plan, err := Builder{Shuffle: noShuffle, Now: func() time.Time { return now }}.Build(uuid.New(), participants)
	require.NoError(t, err)

	assert.Equal(t, 8, plan.Size)
	assert.Equal(t, 2, plan.Byes)
	assert.Equal(t, 3, plan.Rounds)

	entryID := make(map[string]uuid.UUID)
	for _, e := range plan.Entries {
		entryID[e.Name] = e.ID
	}

	expectSlot := func(m *Match, side Side, name string) {
		t.Helper()
		slot := m.Slot(side)
		require.Equal(t, SlotParticipant, slot.Kind)
		assert.Equal(t, entryID[name], *slot.EntryID)
	}

	m1 := plan.Match(1, 1)
	expectSlot(m1, SideA, "A")
	expectSlot(m1, SideB, "B")
	assert.Equal(t, MatchScheduled, m1.Status)

	m2 := plan.Match(1, 2)
	expectSlot(m2, SideA, "C")
	expectSlot(m2, SideB, "D")
	assert.Equal(t, MatchScheduled, m2.Status)

	for number, name := range map[int]string{3: "E", 4: "F"} {
		m := plan.Match(1, number)
		expectSlot(m, SideA, name)
		assert.Equal(t, SlotBye, m.TeamBKind)
		assert.Nil(t, m.TeamBID)
		assert.Equal(t, MatchCompleted, m.Status)
		assert.True(t, m.IsBye)
		assert.Equal(t, entryID[name], *m.WinnerEntryID)
		assert.True(t, m.IsWinner(SideA))
		require.NotNil(t, m.CompletedAt)
		assert.Equal(t, now, *m.CompletedAt)
	}

	r2m1 := plan.Match(2, 1)
	assert.Equal(t, SlotTBD, r2m1.TeamAKind)
	assert.Equal(t, SlotTBD, r2m1.TeamBKind)
	assert.False(t, r2m1.Ready())

	r2m2 := plan.Match(2, 2)
	expectSlot(r2m2, SideA, "E")
	expectSlot(r2m2, SideB, "F")
	assert.True(t, r2m2.Ready())

	final := plan.Match(3, 1)
	assert.Equal(t, SlotTBD, final.TeamAKind)
	assert.Equal(t, SlotTBD, final.TeamBKind)
}

func TestBuild_DoesNotReorderInput(t *testing.T) {
	participants := numberedParticipants(8)
	original := make([]Participant, len(participants))
	copy(original, participants)

	reverse := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	plan, err := Builder{Shuffle: reverse}.Build(uuid.New(), participants)
	require.NoError(t, err)

	assert.Equal(t, original, participants)
	assert.Equal(t, "Team 8", plan.Entries[0].Name)
	assert.Equal(t, 1, plan.Entries[0].Seed)
}

func TestParseByePolicy(t *testing.T) {
	p, err := ParseByePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ByesTrailing, p)

	p, err = ParseByePolicy("spread")
	require.NoError(t, err)
	assert.Equal(t, ByesSpread, p)

	_, err = ParseByePolicy("ranked")
	assert.Error(t, err)
}
