package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/AdamBeresnev/op-bracket/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db    *sqlx.DB
	store *store.TournamentStore
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore) *MatchService {
	return &MatchService{db: db, store: store}
}

type ResultInput struct {
	Winner bracket.Side
	ScoreA int
	ScoreB int
	Notes  string
}

func (in ResultInput) validate() error {
	if !in.Winner.Valid() {
		return fmt.Errorf("%w: winner must be %q or %q", ErrInvalidResult, bracket.SideA, bracket.SideB)
	}
	if in.ScoreA < 0 || in.ScoreB < 0 {
		return fmt.Errorf("%w: scores cannot be negative", ErrInvalidResult)
	}
	if in.score(in.Winner) < in.score(in.Winner.Opposite()) {
		return fmt.Errorf("%w: the winner cannot have the lower score", ErrInvalidResult)
	}
	return nil
}

func (in ResultInput) score(side bracket.Side) int {
	if side == bracket.SideB {
		return in.ScoreB
	}
	return in.ScoreA
}

// Advancement describes what approving a result changed
type Advancement struct {
	TournamentID uuid.UUID
	Match        *bracket.Match
	// Nil when the match was the final
	Destination     *bracket.Match
	ChampionEntryID *uuid.UUID
}

func (a *Advancement) TournamentCompleted() bool {
	return a.ChampionEntryID != nil
}

type MatchData struct {
	Match  *bracket.Match
	EntryA *bracket.Entry
	EntryB *bracket.Entry
}

func (s *MatchService) GetMatchViewData(ctx context.Context, matchID uuid.UUID) (*MatchData, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("match", matchID)
		}
		return nil, persistence("failed to get match", err)
	}

	data := &MatchData{Match: match}
	for _, side := range []bracket.Side{bracket.SideA, bracket.SideB} {
		slot := match.Slot(side)
		if !slot.Resolved() {
			continue
		}
		entry, err := s.store.GetEntry(ctx, *slot.EntryID)
		if err != nil {
			return nil, persistence(fmt.Sprintf("failed to get entry %s", side), err)
		}
		if side == bracket.SideA {
			data.EntryA = entry
		} else {
			data.EntryB = entry
		}
	}
	return data, nil
}

// ApproveResult completes a scheduled match and moves the winner into its
// next match, or crowns the champion when the match is the final. The result,
// the slot write and the tournament update commit together.
func (s *MatchService) ApproveResult(ctx context.Context, matchID uuid.UUID, input ResultInput) (*Advancement, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, persistence("failed to begin transaction", err)
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("match", matchID)
		}
		return nil, persistence("failed to get match", err)
	}

	if match.Status != bracket.MatchScheduled {
		return nil, fmt.Errorf("%w: match %s is already %s", ErrInvalidTransition, matchID, match.Status)
	}
	if !match.Ready() {
		return nil, fmt.Errorf("%w: match %s is still waiting for its participants", ErrInvalidTransition, matchID)
	}

	winnerSide := input.Winner
	winner := match.Slot(winnerSide)
	match.WinnerSlot = &winnerSide
	match.WinnerEntryID = winner.EntryID
	match.ScoreA = input.ScoreA
	match.ScoreB = input.ScoreB
	match.Notes = utils.StringOrNil(input.Notes)

	completed, err := s.store.CompleteMatchTx(ctx, tx, match)
	if err != nil {
		return nil, persistence("failed to update match", err)
	}
	if !completed {
		return nil, fmt.Errorf("%w: match %s was completed concurrently", ErrInvalidTransition, matchID)
	}

	tournament, err := s.store.GetTournamentTx(ctx, tx, match.TournamentID)
	if err != nil {
		return nil, persistence("failed to get tournament", err)
	}

	adv := &Advancement{TournamentID: match.TournamentID, Match: match}

	if tournament.IsFinalRound(match.RoundNumber) {
		// If there is no next match, the winner takes the tournament
		ok, err := s.store.CompleteTournamentTx(ctx, tx, tournament.ID, *winner.EntryID)
		if err != nil {
			return nil, persistence("failed to update tournament status", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: tournament %s is not ongoing", ErrInvalidTransition, tournament.ID)
		}
		adv.ChampionEntryID = winner.EntryID
	} else {
		round, number, side := bracket.NextPosition(match.RoundNumber, match.MatchNumber)
		ok, err := s.store.AssignSlotTx(ctx, tx, match.TournamentID, round, number, side, *winner.EntryID)
		if err != nil {
			return nil, persistence("failed to update next match", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: round %d match %d slot %s is already filled", ErrInvalidTransition, round, number, side)
		}

		adv.Destination, err = s.store.GetMatchAtTx(ctx, tx, match.TournamentID, round, number)
		if err != nil {
			return nil, persistence("failed to get next match", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, persistence("failed to commit result", err)
	}

	if adv.TournamentCompleted() {
		slog.Info("tournament completed", "tournament_id", adv.TournamentID, "champion_entry_id", *adv.ChampionEntryID)
	} else {
		slog.Info("winner advanced",
			"match_id", matchID,
			"round", match.RoundNumber,
			"next_round", adv.Destination.RoundNumber,
			"next_match", adv.Destination.MatchNumber,
			"ready", adv.Destination.Ready())
	}

	return adv, nil
}
