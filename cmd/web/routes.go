package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/op-bracket/internal/bracket"
	"github.com/AdamBeresnev/op-bracket/internal/httputil"
	"github.com/AdamBeresnev/op-bracket/internal/live"
	"github.com/AdamBeresnev/op-bracket/internal/middleware"
	"github.com/AdamBeresnev/op-bracket/internal/service"
	"github.com/AdamBeresnev/op-bracket/internal/store"
	"github.com/AdamBeresnev/op-bracket/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

type application struct {
	sessionManager *scs.SessionManager
	userStore      *store.UserStore
	users          *service.UserService
	brackets       *service.BracketService
	matches        *service.MatchService
	hub            *live.Hub
	limiter        *middleware.RateLimiter
	corsOrigins    []string
}

func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(corsOptions(app.corsOrigins)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.NotFound(w, "Page not found", nil)
	})

	// Serve static files
	fileServer := http.FileServer(http.Dir("./static"))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// The session writer cannot be hijacked, so the websocket stays outside the session group
	r.Get("/tournaments/{id}/live", app.liveFeed)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(middleware.LoadAuthenticatedUser(app.sessionManager, app.userStore))

		r.Post("/auth/guest", app.guestLogin)
		r.Post("/logout", app.logout)

		r.Get("/tournaments/{id}", app.tournamentPage)
		r.Get("/tournaments/{id}/bracket", app.bracketJSON)
		r.Get("/matches/{id}", app.matchJSON)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Use(app.limiter.Handler)

			r.Post("/tournaments/{id}/bracket", app.generateBracket)
			r.Post("/matches/{id}/result", app.approveResult)
		})
	})

	return r
}

// Cookies are only shared with origins listed by name, never with a wildcard
func corsOptions(origins []string) cors.Options {
	credentials := len(origins) > 0
	for _, origin := range origins {
		if strings.Contains(origin, "*") {
			credentials = false
		}
	}
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request"},
		AllowCredentials: credentials,
		MaxAge:           300,
	}
	// An empty list would allow every origin
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	return opts
}

func idParam(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+what+" ID", err)
		return uuid.Nil, false
	}
	return id, true
}

func (app *application) guestLogin(w http.ResponseWriter, r *http.Request) {
	user, err := app.users.EnsureAdminUser(r.Context())
	if err != nil {
		httputil.InternalServerError(w, "Failed to login as guest", err)
		return
	}

	if err := app.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	app.sessionManager.Put(r.Context(), middleware.SessionUserKey, user.ID.String())

	redirect := "/"
	if next := r.FormValue("next"); strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		redirect = next
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func (app *application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.sessionManager.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to logout", err)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (app *application) tournamentPage(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "tournament")
	if !ok {
		return
	}

	data, err := app.brackets.GetBracket(r.Context(), id)
	if err != nil {
		httputil.ServiceError(w, "Failed to get tournament", err)
		return
	}

	page := views.BracketPage(views.PrepareBracketData(data.Tournament, data.Entries, data.Matches))
	if err := views.Render(w, r, page); err != nil {
		httputil.InternalServerError(w, "Failed to render bracket", err)
	}
}

func (app *application) bracketJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "tournament")
	if !ok {
		return
	}

	data, err := app.brackets.GetBracket(r.Context(), id)
	if err != nil {
		httputil.ServiceError(w, "Failed to get bracket", err)
		return
	}
	httputil.JSON(w, http.StatusOK, newBracketResponse(data))
}

type matchDetailResponse struct {
	Match  matchResponse  `json:"match"`
	EntryA *bracket.Entry `json:"entry_a,omitempty"`
	EntryB *bracket.Entry `json:"entry_b,omitempty"`
}

func (app *application) matchJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "match")
	if !ok {
		return
	}

	data, err := app.matches.GetMatchViewData(r.Context(), id)
	if err != nil {
		httputil.ServiceError(w, "Failed to get match data", err)
		return
	}

	names := make(map[uuid.UUID]string, 2)
	for _, e := range []*bracket.Entry{data.EntryA, data.EntryB} {
		if e != nil {
			names[e.ID] = e.Name
		}
	}
	httputil.JSON(w, http.StatusOK, matchDetailResponse{
		Match:  newMatchResponse(data.Match, names),
		EntryA: data.EntryA,
		EntryB: data.EntryB,
	})
}

func (app *application) liveFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "tournament")
	if !ok {
		return
	}

	// Only existing tournaments get a room
	if _, err := app.brackets.GetBracket(r.Context(), id); err != nil {
		httputil.ServiceError(w, "Failed to open live feed", err)
		return
	}
	app.hub.Serve(w, r, id)
}

func (app *application) generateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "tournament")
	if !ok {
		return
	}

	plan, err := app.brackets.GenerateBracket(r.Context(), id)
	if err != nil {
		httputil.ServiceError(w, "Failed to generate bracket", err)
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(r.Context())
	slog.Info("bracket generation approved", "tournament_id", id, "admin_id", adminID)

	app.hub.Publish(live.Message{
		Type:         live.EventBracketGenerated,
		TournamentID: id,
		Payload:      map[string]int{"size": plan.Size, "rounds": plan.Rounds},
	})

	httputil.JSON(w, http.StatusCreated, generateResponse{
		Message: fmt.Sprintf("Bracket generated for %d participants", len(plan.Entries)),
		Size:    plan.Size,
		Byes:    plan.Byes,
		Rounds:  plan.Rounds,
		Matches: len(plan.Matches),
	})
}

type resultRequest struct {
	Winner string `json:"winner"`
	ScoreA int    `json:"score_a"`
	ScoreB int    `json:"score_b"`
	Notes  string `json:"notes"`
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func parseResult(w http.ResponseWriter, r *http.Request) (service.ResultInput, error) {
	var req resultRequest
	if isJSON(r) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			return service.ResultInput{}, fmt.Errorf("invalid JSON body: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return service.ResultInput{}, fmt.Errorf("invalid form data: %w", err)
		}
		req.Winner = r.Form.Get("winner")
		req.Notes = r.Form.Get("notes")
		for field, dst := range map[string]*int{"score_a": &req.ScoreA, "score_b": &req.ScoreB} {
			v := strings.TrimSpace(r.Form.Get(field))
			if v == "" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return service.ResultInput{}, fmt.Errorf("invalid %s: %w", field, err)
			}
			*dst = n
		}
	}

	return service.ResultInput{
		Winner: bracket.Side(strings.ToLower(strings.TrimSpace(req.Winner))),
		ScoreA: req.ScoreA,
		ScoreB: req.ScoreB,
		Notes:  req.Notes,
	}, nil
}

func (app *application) approveResult(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "match")
	if !ok {
		return
	}

	input, err := parseResult(w, r)
	if err != nil {
		httputil.BadRequest(w, "Invalid match result", err)
		return
	}

	adv, err := app.matches.ApproveResult(r.Context(), id, input)
	if err != nil {
		httputil.ServiceError(w, "Failed to approve result", err)
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(r.Context())
	slog.Info("match result approved", "match_id", id, "winner", input.Winner, "admin_id", adminID)

	app.publishAdvancement(adv)

	// Forms posted from the bracket page go back to it
	if !isJSON(r) && r.Header.Get("Accept") != "application/json" {
		http.Redirect(w, r, "/tournaments/"+adv.TournamentID.String(), http.StatusSeeOther)
		return
	}

	resp := advancementResponse{
		Match:               newMatchResponse(adv.Match, nil),
		TournamentCompleted: adv.TournamentCompleted(),
		ChampionEntryID:     adv.ChampionEntryID,
	}
	if adv.Destination != nil {
		dest := newMatchResponse(adv.Destination, nil)
		resp.Destination = &dest
	}
	httputil.JSON(w, http.StatusOK, resp)
}

func (app *application) publishAdvancement(adv *service.Advancement) {
	payload := map[string]any{
		"match_id":    adv.Match.ID,
		"round":       adv.Match.RoundNumber,
		"match":       adv.Match.MatchNumber,
		"winner":      adv.Match.WinnerEntryID,
		"approved_at": time.Now().UTC(),
	}
	if adv.Destination != nil {
		payload["next_match_id"] = adv.Destination.ID
		payload["next_ready"] = adv.Destination.Ready()
	}
	app.hub.Publish(live.Message{Type: live.EventMatchCompleted, TournamentID: adv.TournamentID, Payload: payload})

	if adv.TournamentCompleted() {
		app.hub.Publish(live.Message{
			Type:         live.EventTournamentCompleted,
			TournamentID: adv.TournamentID,
			Payload:      map[string]any{"champion_entry_id": adv.ChampionEntryID},
		})
	}
}
