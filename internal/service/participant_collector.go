package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/media"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	users "github.com/AdamBeresnev/op-bracket/internal/user"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	UnknownTeamName   = "Unknown Team"
	UnknownPlayerName = "Unknown Player"
)

type ParticipantCollector struct {
	tournaments   *store.TournamentStore
	registrations *store.RegistrationStore
	users         *store.UserStore
	logos         media.Resolver
	concurrency   int
}

func NewParticipantCollector(
	tournaments *store.TournamentStore,
	registrations *store.RegistrationStore,
	users *store.UserStore,
	logos media.Resolver,
	concurrency int,
) *ParticipantCollector {
	if logos == nil {
		logos = media.PublicURLResolver{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &ParticipantCollector{
		tournaments:   tournaments,
		registrations: registrations,
		users:         users,
		logos:         logos,
		concurrency:   concurrency,
	}
}

// Collect returns the participants of every approved registration, in
// registration order and without duplicates. Display data that cannot be
// loaded is replaced with placeholders.
func (c *ParticipantCollector) Collect(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Participant, error) {
	if _, err := c.tournaments.GetTournament(ctx, tournamentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("tournament", tournamentID)
		}
		return nil, persistence("failed to get tournament", err)
	}

	registrations, err := c.registrations.ListRegistrations(ctx, tournamentID, bracket.RegistrationApproved)
	if err != nil {
		return nil, persistence("failed to list registrations", err)
	}

	participants := make([]bracket.Participant, 0, len(registrations))
	seen := make(map[string]bool, len(registrations))
	for _, reg := range registrations {
		var p bracket.Participant
		switch {
		case reg.TeamID != nil:
			p = bracket.Participant{Kind: bracket.TeamParticipant, RefID: *reg.TeamID}
		case reg.UserID != nil:
			p = bracket.Participant{Kind: bracket.SoloParticipant, RefID: *reg.UserID}
		default:
			slog.Warn("skipping registration without a team or player",
				"tournament_id", tournamentID, "registration_id", reg.ID)
			continue
		}

		if seen[p.Key()] {
			slog.Debug("skipping duplicate registration", "tournament_id", tournamentID, "participant", p.Key())
			continue
		}
		seen[p.Key()] = true
		participants = append(participants, p)
	}

	teams := NewLookupCache(c.registrations.GetTeam)
	players := NewLookupCache(c.users.GetUser)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range participants {
		g.Go(func() error {
			c.resolve(gctx, &participants[i], teams, players)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("participants collected",
		"tournament_id", tournamentID,
		"participants", len(participants),
		"teams_loaded", teams.Len(),
		"players_loaded", players.Len())

	return participants, nil
}

func (c *ParticipantCollector) resolve(ctx context.Context, p *bracket.Participant, teams *LookupCache[bracket.Team], players *LookupCache[users.User]) {
	var logoRef *string

	switch p.Kind {
	case bracket.TeamParticipant:
		team, err := teams.Get(ctx, p.RefID)
		if err != nil {
			logLookupFailure("team", p.RefID, err)
			p.Name = UnknownTeamName
			break
		}
		p.Name = team.Name
		logoRef = team.Logo
	case bracket.SoloParticipant:
		player, err := players.Get(ctx, p.RefID)
		if err != nil {
			logLookupFailure("player", p.RefID, err)
			p.Name = UnknownPlayerName
			break
		}
		p.Name = player.Username
		logoRef = player.AvatarURL
	}

	logo, err := c.logos.Resolve(ctx, logoRef)
	if err != nil {
		slog.Warn("failed to resolve logo, using placeholder", "participant", p.Key(), "error", err)
		logo = media.PlaceholderLogo
	}
	p.LogoURL = &logo
}

func logLookupFailure(kind string, id uuid.UUID, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		slog.Warn(kind+" not found, using placeholder name", "id", id)
		return
	}
	slog.Warn("failed to load "+kind+", using placeholder name", "id", id, "error", err)
}
