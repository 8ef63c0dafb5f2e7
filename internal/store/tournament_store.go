package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	createTournamentQuery = `INSERT INTO tournaments (id, title, game, status, start_date, bracket_rounds, champion_entry_id, created_at)
		VALUES (:id, :title, :game, :status, :start_date, :bracket_rounds, :champion_entry_id, :created_at)`

	createEntriesQuery = `INSERT INTO entries (id, tournament_id, kind, ref_id, name, logo_url, seed, created_at)
		VALUES (:id, :tournament_id, :kind, :ref_id, :name, :logo_url, :seed, :created_at)`

	createMatchesQuery = `INSERT INTO matches (id, tournament_id, round_number, match_number, team_a_kind, team_a_id, team_b_kind, team_b_id,
			status, winner_slot, winner_entry_id, score_a, score_b, notes, is_bye, winner_next_match_id, winner_next_slot, completed_at, created_at, updated_at)
		VALUES (:id, :tournament_id, :round_number, :match_number, :team_a_kind, :team_a_id, :team_b_kind, :team_b_id,
			:status, :winner_slot, :winner_entry_id, :score_a, :score_b, :notes, :is_bye, :winner_next_match_id, :winner_next_slot, :completed_at, :created_at, :updated_at)`

	// Only an upcoming tournament can receive a bracket
	startTournamentQuery = `UPDATE tournaments SET status = ?, bracket_rounds = ? WHERE id = ? AND status = ?`

	completeTournamentQuery = `UPDATE tournaments SET status = ?, champion_entry_id = ? WHERE id = ? AND status = ?`

	completeMatchQuery = `UPDATE matches SET status = ?, winner_slot = ?, winner_entry_id = ?, score_a = ?, score_b = ?, notes = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`

	// Slot writes touch a single column pair and only ever replace a TBD
	assignSlotAQuery = `UPDATE matches SET team_a_kind = ?, team_a_id = ?, updated_at = ?
		WHERE tournament_id = ? AND round_number = ? AND match_number = ? AND team_a_kind = ?`
	assignSlotBQuery = `UPDATE matches SET team_b_kind = ?, team_b_id = ?, updated_at = ?
		WHERE tournament_id = ? AND round_number = ? AND match_number = ? AND team_b_kind = ?`
)

func (s *TournamentStore) CreateTournament(ctx context.Context, e sqlx.ExtContext, tournament *bracket.Tournament) error {
	if tournament.CreatedAt.IsZero() {
		tournament.CreatedAt = time.Now().UTC()
	}
	if tournament.Status == "" {
		tournament.Status = bracket.TournamentUpcoming
	}
	_, err := sqlx.NamedExecContext(ctx, e, createTournamentQuery, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, s.db, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, tx, id)
}

func getTournament(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := sqlx.GetContext(ctx, q, &tournament, q.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

// StartTournamentTx moves an upcoming tournament to ongoing and reports whether it did
func (s *TournamentStore) StartTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, rounds int) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(startTournamentQuery),
		bracket.TournamentOngoing, rounds, id, bracket.TournamentUpcoming)
	return affectedOne(res, err)
}

func (s *TournamentStore) CompleteTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, championEntryID uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(completeTournamentQuery),
		bracket.TournamentCompleted, championEntryID, id, bracket.TournamentOngoing)
	return affectedOne(res, err)
}

func (s *TournamentStore) CountMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM matches WHERE tournament_id = ?"), tournamentID)
	return count, err
}

func (s *TournamentStore) CreateEntries(ctx context.Context, tx *sqlx.Tx, entries []bracket.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createEntriesQuery, entries)
	return err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createMatchesQuery, matches)
	return err
}

func (s *TournamentStore) GetEntries(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Entry, error) {
	var entries []bracket.Entry
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind("SELECT * FROM entries WHERE tournament_id = ? ORDER BY seed ASC"), tournamentID)
	return entries, err
}

func (s *TournamentStore) GetEntry(ctx context.Context, id uuid.UUID) (*bracket.Entry, error) {
	var entry bracket.Entry
	err := s.db.GetContext(ctx, &entry, s.db.Rebind("SELECT * FROM entries WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, s.db.Rebind("SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, match_number ASC"), tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, tx, id)
}

func getMatch(ctx context.Context, q sqlx.ExtContext, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := sqlx.GetContext(ctx, q, &match, q.Rebind("SELECT * FROM matches WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) GetMatchAtTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, round, matchNumber int) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match, tx.Rebind("SELECT * FROM matches WHERE tournament_id = ? AND round_number = ? AND match_number = ?"),
		tournamentID, round, matchNumber)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// CompleteMatchTx writes the result only if the match is still scheduled
func (s *TournamentStore) CompleteMatchTx(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) (bool, error) {
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, tx.Rebind(completeMatchQuery),
		bracket.MatchCompleted, match.WinnerSlot, match.WinnerEntryID, match.ScoreA, match.ScoreB, match.Notes, now, now,
		match.ID, bracket.MatchScheduled)
	ok, err := affectedOne(res, err)
	if ok {
		match.Status = bracket.MatchCompleted
		match.CompletedAt = &now
		match.UpdatedAt = now
	}
	return ok, err
}

// AssignSlotTx fills one TBD slot of the match at (round, matchNumber)
func (s *TournamentStore) AssignSlotTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, round, matchNumber int, side bracket.Side, entryID uuid.UUID) (bool, error) {
	query := assignSlotAQuery
	if side == bracket.SideB {
		query = assignSlotBQuery
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(query),
		bracket.SlotParticipant, entryID, time.Now().UTC(),
		tournamentID, round, matchNumber, bracket.SlotTBD)
	return affectedOne(res, err)
}
