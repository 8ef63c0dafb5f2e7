package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/media"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	t.Cleanup(func() { database.Close() })
	return database
}

func noShuffle(int, func(i, j int)) {}

// fixture wires the stores and services over one test database
type fixture struct {
	t   *testing.T
	ctx context.Context
	db  *sqlx.DB

	tournaments   *store.TournamentStore
	registrations *store.RegistrationStore
	users         *store.UserStore

	collector *ParticipantCollector
	brackets  *BracketService
	matches   *MatchService

	// Registrations are listed by creation time, so each one gets a later timestamp
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	f := &fixture{
		t:             t,
		ctx:           context.Background(),
		db:            db,
		tournaments:   store.NewTournamentStore(db),
		registrations: store.NewRegistrationStore(db),
		users:         store.NewUserStore(db),
		clock:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.collector = NewParticipantCollector(f.tournaments, f.registrations, f.users, media.PublicURLResolver{BaseURL: "https://cdn.example.com/logos"}, 4)
	f.brackets = NewBracketService(db, f.tournaments, f.collector, bracket.Builder{Policy: bracket.ByesTrailing, Shuffle: noShuffle})
	f.matches = NewMatchService(db, f.tournaments)
	return f
}

func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fixture) tournament() *bracket.Tournament {
	f.t.Helper()
	tournament := &bracket.Tournament{ID: uuid.New(), Title: "Spring Cup", Game: "Valorant"}
	require.NoError(f.t, f.tournaments.CreateTournament(f.ctx, f.db, tournament))
	return tournament
}

func (f *fixture) team(name string, logo *string) *bracket.Team {
	f.t.Helper()
	team := &bracket.Team{ID: uuid.New(), Name: name, Logo: logo}
	require.NoError(f.t, f.registrations.CreateTeam(f.ctx, f.db, team))
	return team
}

func (f *fixture) register(tournamentID uuid.UUID, teamID, userID *uuid.UUID, status bracket.RegistrationStatus) *bracket.Registration {
	f.t.Helper()
	reg := &bracket.Registration{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		TeamID:       teamID,
		UserID:       userID,
		Status:       status,
		CreatedAt:    f.tick(),
	}
	require.NoError(f.t, f.registrations.CreateRegistration(f.ctx, f.db, reg))
	return reg
}

// approvedTeams registers one approved team per name, in order
func (f *fixture) approvedTeams(tournamentID uuid.UUID, names ...string) []*bracket.Team {
	f.t.Helper()
	teams := make([]*bracket.Team, 0, len(names))
	for _, name := range names {
		team := f.team(name, nil)
		f.register(tournamentID, &team.ID, nil, bracket.RegistrationApproved)
		teams = append(teams, team)
	}
	return teams
}

func (f *fixture) match(tournamentID uuid.UUID, round, number int) *bracket.Match {
	f.t.Helper()
	matches, err := f.tournaments.GetMatches(f.ctx, tournamentID)
	require.NoError(f.t, err)
	for i := range matches {
		if matches[i].RoundNumber == round && matches[i].MatchNumber == number {
			return &matches[i]
		}
	}
	f.t.Fatalf("no match at round %d match %d", round, number)
	return nil
}

// entryIDs maps entry names to ids
func (f *fixture) entryIDs(tournamentID uuid.UUID) map[string]uuid.UUID {
	f.t.Helper()
	entries, err := f.tournaments.GetEntries(f.ctx, tournamentID)
	require.NoError(f.t, err)
	ids := make(map[string]uuid.UUID, len(entries))
	for _, e := range entries {
		ids[e.Name] = e.ID
	}
	return ids
}
