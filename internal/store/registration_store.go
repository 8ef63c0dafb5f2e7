package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RegistrationStore reads the records other parts of the platform write:
// teams and tournament registrations.
type RegistrationStore struct {
	db *sqlx.DB
}

func NewRegistrationStore(db *sqlx.DB) *RegistrationStore {
	return &RegistrationStore{db: db}
}

const (
	createTeamQuery = `INSERT INTO teams (id, name, logo, captain_id, created_at)
		VALUES (:id, :name, :logo, :captain_id, :created_at)`

	createRegistrationQuery = `INSERT INTO registrations (id, tournament_id, team_id, user_id, status, created_at)
		VALUES (:id, :tournament_id, :team_id, :user_id, :status, :created_at)`

	listRegistrationsQuery = `SELECT * FROM registrations
		WHERE tournament_id = ? AND status = ?
		ORDER BY created_at ASC, id ASC`
)

func (s *RegistrationStore) CreateTeam(ctx context.Context, e sqlx.ExtContext, team *bracket.Team) error {
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	_, err := sqlx.NamedExecContext(ctx, e, createTeamQuery, team)
	return err
}

func (s *RegistrationStore) GetTeam(ctx context.Context, id uuid.UUID) (*bracket.Team, error) {
	var team bracket.Team
	err := s.db.GetContext(ctx, &team, s.db.Rebind("SELECT * FROM teams WHERE id = ?"), id)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (s *RegistrationStore) CreateRegistration(ctx context.Context, e sqlx.ExtContext, registration *bracket.Registration) error {
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = time.Now().UTC()
	}
	if registration.Status == "" {
		registration.Status = bracket.RegistrationPending
	}
	_, err := sqlx.NamedExecContext(ctx, e, createRegistrationQuery, registration)
	return err
}

func (s *RegistrationStore) UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status bracket.RegistrationStatus) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE registrations SET status = ? WHERE id = ?"), status, id)
	return err
}

// ListRegistrations returns the registrations of a tournament with the given status, oldest first
func (s *RegistrationStore) ListRegistrations(ctx context.Context, tournamentID uuid.UUID, status bracket.RegistrationStatus) ([]bracket.Registration, error) {
	var registrations []bracket.Registration
	err := s.db.SelectContext(ctx, &registrations, s.db.Rebind(listRegistrationsQuery), tournamentID, status)
	return registrations, err
}
