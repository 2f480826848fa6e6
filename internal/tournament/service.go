// Package tournament は大会と開催日の管理ロジックを提供する。
package tournament

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/tkdadmin/internal/model"
	"github.com/hitoshi/tkdadmin/internal/repository"
	"github.com/hitoshi/tkdadmin/internal/security"
)

// DateLayout は日付の入出力形式。
const DateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// TournamentInput は大会の作成・部分更新の入力。
// nilのフィールドは更新しない。
type TournamentInput struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	StartDate       *string  `json:"start_date"`
	EndDate         *string  `json:"end_date"`
	Location        *string  `json:"location"`
	Status          *string  `json:"status"`
	Organizer       *string  `json:"organizer"`
	Chairman        *string  `json:"chairman"`
	RefereeChief    *string  `json:"referee_chief"`
	Treasurer       *string  `json:"treasurer"`
	AdminTournament *string  `json:"admin_tournament"`
	RegistrationFee *float64 `json:"registration_fee"`
}

// DayInput は開催日の作成・部分更新の入力。
type DayInput struct {
	DayNumber   *int    `json:"day_number"`
	Date        *string `json:"date"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	IsActive    *bool   `json:"is_active"`
}

// Service は大会管理のサービス層。
type Service struct {
	tournaments repository.TournamentRepository
	days        repository.TournamentDayRepository
	sanitizer   security.TextSanitizer
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	tournaments repository.TournamentRepository,
	days repository.TournamentDayRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		tournaments: tournaments,
		days:        days,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// List は大会一覧を返す。
func (s *Service) List(ctx context.Context) ([]*model.Tournament, error) {
	list, err := s.tournaments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if list == nil {
		list = []*model.Tournament{}
	}
	return list, nil
}

// Get は大会を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Tournament, error) {
	t, err := s.tournaments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find tournament: %w", err)
	}
	if t == nil {
		return nil, model.NewTournamentNotFoundError(id)
	}
	return t, nil
}

// Create は大会を作成する。状態の指定がなければplanningとする。
func (s *Service) Create(ctx context.Context, in TournamentInput) (*model.Tournament, error) {
	now := s.now()
	t := &model.Tournament{
		ID:        uuid.New().String(),
		Status:    model.TournamentStatusPlanning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Name == nil || in.StartDate == nil || in.EndDate == nil || in.Location == nil {
		return nil, model.NewValidationError("Name, start date, end date and location are required")
	}
	if err := s.applyTournament(t, in); err != nil {
		return nil, err
	}

	if err := s.tournaments.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	slog.Info("tournament created",
		slog.String("tournament_id", t.ID),
		slog.String("name", t.Name),
	)
	return t, nil
}

// Update は指定されたフィールドのみを更新し、結果全体を再検証する。
func (s *Service) Update(ctx context.Context, id string, in TournamentInput) (*model.Tournament, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyTournament(t, in); err != nil {
		return nil, err
	}
	t.UpdatedAt = s.now()

	ok, err := s.tournaments.Update(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}
	if !ok {
		return nil, model.NewTournamentNotFoundError(id)
	}
	return t, nil
}

// Delete は大会を削除する。
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.tournaments.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament: %w", err)
	}
	if !ok {
		return model.NewTournamentNotFoundError(id)
	}
	slog.Info("tournament deleted", slog.String("tournament_id", id))
	return nil
}

// applyTournament は入力をtへ反映して検証する。
func (s *Service) applyTournament(t *model.Tournament, in TournamentInput) error {
	if in.Name != nil {
		t.Name = s.sanitizer.Sanitize(*in.Name)
	}
	if in.Description != nil {
		t.Description = s.sanitizer.Sanitize(*in.Description)
	}
	if in.Location != nil {
		t.Location = s.sanitizer.Sanitize(*in.Location)
	}
	if in.Organizer != nil {
		t.Organizer = s.sanitizer.Sanitize(*in.Organizer)
	}
	if in.Chairman != nil {
		t.Chairman = s.sanitizer.Sanitize(*in.Chairman)
	}
	if in.RefereeChief != nil {
		t.RefereeChief = s.sanitizer.Sanitize(*in.RefereeChief)
	}
	if in.Treasurer != nil {
		t.Treasurer = s.sanitizer.Sanitize(*in.Treasurer)
	}
	if in.AdminTournament != nil {
		t.AdminTournament = s.sanitizer.Sanitize(*in.AdminTournament)
	}
	if in.StartDate != nil {
		d, err := parseDate(*in.StartDate, "start date")
		if err != nil {
			return err
		}
		t.StartDate = d
	}
	if in.EndDate != nil {
		d, err := parseDate(*in.EndDate, "end date")
		if err != nil {
			return err
		}
		t.EndDate = d
	}
	if in.Status != nil {
		t.Status = model.TournamentStatus(strings.TrimSpace(*in.Status))
	}
	if in.RegistrationFee != nil {
		fee := *in.RegistrationFee
		t.RegistrationFee = &fee
	}

	switch {
	case t.Name == "":
		return model.NewValidationError("Name is required")
	case t.Location == "":
		return model.NewValidationError("Location is required")
	case t.EndDate.Before(t.StartDate):
		return model.NewValidationError("End date must be on or after the start date")
	case !t.Status.Valid():
		return model.NewValidationError(fmt.Sprintf("Invalid status: %s", t.Status))
	case t.RegistrationFee != nil && *t.RegistrationFee < 0:
		return model.NewValidationError("Registration fee must not be negative")
	}
	return nil
}

// ListDays は大会の開催日を日番号順に返す。
func (s *Service) ListDays(ctx context.Context, tournamentID string) ([]*model.TournamentDay, error) {
	if _, err := s.Get(ctx, tournamentID); err != nil {
		return nil, err
	}
	days, err := s.days.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament days: %w", err)
	}
	if days == nil {
		days = []*model.TournamentDay{}
	}
	return days, nil
}

// GetDay は開催日を取得する。
func (s *Service) GetDay(ctx context.Context, tournamentID, dayID string) (*model.TournamentDay, error) {
	d, err := s.days.FindByID(ctx, tournamentID, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to find tournament day: %w", err)
	}
	if d == nil {
		return nil, model.NewDayNotFoundError(dayID)
	}
	return d, nil
}

// CreateDay は開催日を作成する。is_activeの指定がなければ有効とする。
func (s *Service) CreateDay(ctx context.Context, tournamentID string, in DayInput) (*model.TournamentDay, error) {
	if in.DayNumber == nil || in.Date == nil || in.Name == nil || in.StartTime == nil || in.EndTime == nil {
		return nil, model.NewValidationError("Required fields are missing")
	}
	if _, err := s.Get(ctx, tournamentID); err != nil {
		return nil, err
	}

	now := s.now()
	d := &model.TournamentDay{
		ID:           uuid.New().String(),
		TournamentID: tournamentID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.applyDay(d, in); err != nil {
		return nil, err
	}
	if err := s.checkDayNumber(ctx, d, ""); err != nil {
		return nil, err
	}

	if err := s.days.Create(ctx, d); err != nil {
		if errors.Is(err, repository.ErrDuplicateDayNumber) {
			return nil, model.NewDayNumberTakenError(d.DayNumber)
		}
		return nil, fmt.Errorf("failed to create tournament day: %w", err)
	}
	return d, nil
}

// UpdateDay は開催日を部分更新する。
func (s *Service) UpdateDay(ctx context.Context, tournamentID, dayID string, in DayInput) (*model.TournamentDay, error) {
	d, err := s.GetDay(ctx, tournamentID, dayID)
	if err != nil {
		return nil, err
	}
	if err := s.applyDay(d, in); err != nil {
		return nil, err
	}
	if err := s.checkDayNumber(ctx, d, d.ID); err != nil {
		return nil, err
	}
	d.UpdatedAt = s.now()

	ok, err := s.days.Update(ctx, d)
	if errors.Is(err, repository.ErrDuplicateDayNumber) {
		return nil, model.NewDayNumberTakenError(d.DayNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update tournament day: %w", err)
	}
	if !ok {
		return nil, model.NewDayNotFoundError(dayID)
	}
	return d, nil
}

// DeleteDay は開催日を削除する。
func (s *Service) DeleteDay(ctx context.Context, tournamentID, dayID string) error {
	ok, err := s.days.Delete(ctx, tournamentID, dayID)
	if err != nil {
		return fmt.Errorf("failed to delete tournament day: %w", err)
	}
	if !ok {
		return model.NewDayNotFoundError(dayID)
	}
	return nil
}

func (s *Service) checkDayNumber(ctx context.Context, d *model.TournamentDay, excludeID string) error {
	taken, err := s.days.ExistsDayNumber(ctx, d.TournamentID, d.DayNumber, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check day number: %w", err)
	}
	if taken {
		return model.NewDayNumberTakenError(d.DayNumber)
	}
	return nil
}

func (s *Service) applyDay(d *model.TournamentDay, in DayInput) error {
	if in.DayNumber != nil {
		d.DayNumber = *in.DayNumber
	}
	if in.Date != nil {
		date, err := parseDate(*in.Date, "date")
		if err != nil {
			return err
		}
		d.Date = date
	}
	if in.Name != nil {
		d.Name = s.sanitizer.Sanitize(*in.Name)
	}
	if in.Description != nil {
		d.Description = s.sanitizer.Sanitize(*in.Description)
	}
	if in.StartTime != nil {
		d.StartTime = strings.TrimSpace(*in.StartTime)
	}
	if in.EndTime != nil {
		d.EndTime = strings.TrimSpace(*in.EndTime)
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}

	switch {
	case d.DayNumber <= 0:
		return model.NewValidationError("Day number must be a positive integer")
	case d.Name == "":
		return model.NewValidationError("Name is required")
	case !clockPattern.MatchString(d.StartTime) || !clockPattern.MatchString(d.EndTime):
		return model.NewValidationError("Times must use the HH:MM format")
	case d.EndTime <= d.StartTime:
		return model.NewValidationError("End time must be after the start time")
	}
	return nil
}

func parseDate(value, field string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, model.NewValidationError(fmt.Sprintf("Invalid %s: use YYYY-MM-DD", field))
	}
	return d, nil
}
