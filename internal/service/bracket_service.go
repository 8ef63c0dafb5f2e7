package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketService struct {
	db        *sqlx.DB
	store     *store.TournamentStore
	collector *ParticipantCollector
	builder   bracket.Builder
}

func NewBracketService(db *sqlx.DB, store *store.TournamentStore, collector *ParticipantCollector, builder bracket.Builder) *BracketService {
	return &BracketService{db: db, store: store, collector: collector, builder: builder}
}

type BracketData struct {
	Tournament *bracket.Tournament
	Entries    []bracket.Entry
	Matches    []bracket.Match
}

func (s *BracketService) GetBracket(ctx context.Context, tournamentID uuid.UUID) (*BracketData, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("tournament", tournamentID)
		}
		return nil, persistence("failed to get tournament", err)
	}

	entries, err := s.store.GetEntries(ctx, tournamentID)
	if err != nil {
		return nil, persistence("failed to get entries", err)
	}

	matches, err := s.store.GetMatches(ctx, tournamentID)
	if err != nil {
		return nil, persistence("failed to get matches", err)
	}

	return &BracketData{
		Tournament: tournament,
		Entries:    entries,
		Matches:    matches,
	}, nil
}

// GenerateBracket builds the full single elimination tree for the approved
// participants of a tournament and commits it together with the move to
// ongoing. Either the whole bracket is written or nothing is.
func (s *BracketService) GenerateBracket(ctx context.Context, tournamentID uuid.UUID) (*bracket.Plan, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("tournament", tournamentID)
		}
		return nil, persistence("failed to get tournament", err)
	}
	if tournament.Status != bracket.TournamentUpcoming {
		return nil, ErrBracketAlreadyExists
	}

	participants, err := s.collector.Collect(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(participants) < 2 {
		return nil, fmt.Errorf("%w (found %d)", ErrInsufficientParticipants, len(participants))
	}

	plan, err := s.builder.Build(tournamentID, participants)
	if err != nil {
		return nil, fmt.Errorf("failed to build bracket: %w", err)
	}

	if err := s.commit(ctx, plan); err != nil {
		return nil, err
	}

	slog.Info("bracket generated",
		"tournament_id", tournamentID,
		"participants", len(plan.Entries),
		"size", plan.Size,
		"byes", plan.Byes,
		"rounds", plan.Rounds)

	return plan, nil
}

// The existence check and the writes share one transaction, and the status
// update only matches an upcoming tournament, so two concurrent requests
// cannot both commit.
func (s *BracketService) commit(ctx context.Context, plan *bracket.Plan) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return persistence("failed to begin transaction", err)
	}
	defer tx.Rollback()

	existing, err := s.store.CountMatchesTx(ctx, tx, plan.TournamentID)
	if err != nil {
		return persistence("failed to count matches", err)
	}
	if existing > 0 {
		return ErrBracketAlreadyExists
	}

	started, err := s.store.StartTournamentTx(ctx, tx, plan.TournamentID, plan.Rounds)
	if err != nil {
		return persistence("failed to update tournament status", err)
	}
	if !started {
		return ErrBracketAlreadyExists
	}

	if err := s.store.CreateEntries(ctx, tx, plan.Entries); err != nil {
		return persistence("failed to create entries", err)
	}

	if err := s.store.CreateMatches(ctx, tx, plan.Matches); err != nil {
		return persistence("failed to create matches", err)
	}

	if err := tx.Commit(); err != nil {
		return persistence("failed to commit bracket", err)
	}
	return nil
}
