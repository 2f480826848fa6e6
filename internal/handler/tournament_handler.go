package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/tkdadmin/internal/model"
	"github.com/hitoshi/tkdadmin/internal/tournament"
)

// TournamentServiceInterface は大会ハンドラーが必要とするサービスインターフェース。
type TournamentServiceInterface interface {
	List(ctx context.Context) ([]*model.Tournament, error)
	Get(ctx context.Context, id string) (*model.Tournament, error)
	Create(ctx context.Context, in tournament.TournamentInput) (*model.Tournament, error)
	Update(ctx context.Context, id string, in tournament.TournamentInput) (*model.Tournament, error)
	Delete(ctx context.Context, id string) error

	ListDays(ctx context.Context, tournamentID string) ([]*model.TournamentDay, error)
	GetDay(ctx context.Context, tournamentID, dayID string) (*model.TournamentDay, error)
	CreateDay(ctx context.Context, tournamentID string, in tournament.DayInput) (*model.TournamentDay, error)
	UpdateDay(ctx context.Context, tournamentID, dayID string, in tournament.DayInput) (*model.TournamentDay, error)
	DeleteDay(ctx context.Context, tournamentID, dayID string) error
}

// TournamentHandler は大会と開催日のHTTPハンドラー。
type TournamentHandler struct {
	service TournamentServiceInterface
}

// NewTournamentHandler はTournamentHandlerを生成する。
func NewTournamentHandler(service TournamentServiceInterface) *TournamentHandler {
	return &TournamentHandler{service: service}
}

type tournamentResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	Location        string    `json:"location"`
	Status          string    `json:"status"`
	Organizer       string    `json:"organizer"`
	Chairman        string    `json:"chairman"`
	RefereeChief    string    `json:"referee_chief"`
	Treasurer       string    `json:"treasurer"`
	AdminTournament string    `json:"admin_tournament"`
	RegistrationFee *float64  `json:"registration_fee"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type dayResponse struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournament_id"`
	DayNumber    int       `json:"day_number"`
	Date         string    `json:"date"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toTournamentResponse(t *model.Tournament) tournamentResponse {
	return tournamentResponse{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		StartDate:       t.StartDate.Format(tournament.DateLayout),
		EndDate:         t.EndDate.Format(tournament.DateLayout),
		Location:        t.Location,
		Status:          string(t.Status),
		Organizer:       t.Organizer,
		Chairman:        t.Chairman,
		RefereeChief:    t.RefereeChief,
		Treasurer:       t.Treasurer,
		AdminTournament: t.AdminTournament,
		RegistrationFee: t.RegistrationFee,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toDayResponse(d *model.TournamentDay) dayResponse {
	return dayResponse{
		ID:           d.ID,
		TournamentID: d.TournamentID,
		DayNumber:    d.DayNumber,
		Date:         d.Date.Format(tournament.DateLayout),
		Name:         d.Name,
		Description:  d.Description,
		StartTime:    d.StartTime,
		EndTime:      d.EndTime,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ListTournaments は大会一覧を返す。
// GET /api/tournaments
func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]tournamentResponse, 0, len(tournaments))
	for _, t := range tournaments {
		resp = append(resp, toTournamentResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTournament は大会詳細を返す。
// GET /api/tournaments/{id}
func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTournamentResponse(t))
}

// CreateTournament は大会を作成する。
// POST /api/tournaments
func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var in tournament.TournamentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	t, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTournamentResponse(t))
}

// UpdateTournament は大会を部分更新する。
// PATCH /api/tournaments/{id}
func (h *TournamentHandler) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	var in tournament.TournamentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	t, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTournamentResponse(t))
}

// DeleteTournament は大会を削除する。
// DELETE /api/tournaments/{id}
func (h *TournamentHandler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDays は大会の開催日一覧を返す。
// GET /api/tournaments/{id}/days
func (h *TournamentHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.ListDays(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]dayResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, toDayResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDay は開催日を返す。
// GET /api/tournaments/{id}/days/{dayId}
func (h *TournamentHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.GetDay(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "dayId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponse(d))
}

// CreateDay は開催日を追加する。
// POST /api/tournaments/{id}/days
func (h *TournamentHandler) CreateDay(w http.ResponseWriter, r *http.Request) {
	var in tournament.DayInput
	if !decodeJSON(w, r, &in) {
		return
	}

	d, err := h.service.CreateDay(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDayResponse(d))
}

// UpdateDay は開催日を部分更新する。
// PATCH /api/tournaments/{id}/days/{dayId}
func (h *TournamentHandler) UpdateDay(w http.ResponseWriter, r *http.Request) {
	var in tournament.DayInput
	if !decodeJSON(w, r, &in) {
		return
	}

	d, err := h.service.UpdateDay(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "dayId"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDayResponse(d))
}

// DeleteDay は開催日を削除する。
// DELETE /api/tournaments/{id}/days/{dayId}
func (h *TournamentHandler) DeleteDay(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDay(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "dayId")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
