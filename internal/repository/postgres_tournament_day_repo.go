package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tkdadmin/internal/model"
)

const dayColumns = `id, tournament_id, day_number, date, name, description,
	to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), is_active, created_at, updated_at`

// PostgresTournamentDayRepo はPostgreSQLを使用した大会開催日リポジトリ。
type PostgresTournamentDayRepo struct {
	db *sql.DB
}

// NewPostgresTournamentDayRepo はPostgresTournamentDayRepoを生成する。
func NewPostgresTournamentDayRepo(db *sql.DB) *PostgresTournamentDayRepo {
	return &PostgresTournamentDayRepo{db: db}
}

func scanDay(row rowScanner) (*model.TournamentDay, error) {
	d := &model.TournamentDay{}
	if err := row.Scan(
		&d.ID, &d.TournamentID, &d.DayNumber, &d.Date, &d.Name, &d.Description,
		&d.StartTime, &d.EndTime, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return d, nil
}

// ListByTournament は大会の開催日をday_numberの昇順で返す。
func (r *PostgresTournamentDayRepo) ListByTournament(ctx context.Context, tournamentID string) ([]*model.TournamentDay, error) {
	if !validID(tournamentID) {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+dayColumns+`
		 FROM tournament_days
		 WHERE tournament_id = $1
		 ORDER BY day_number ASC`,
		tournamentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament days: %w", err)
	}
	defer rows.Close()

	var days []*model.TournamentDay
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tournament days: %w", err)
	}
	return days, nil
}

// FindByID は大会IDと開催日IDで取得する。見つからない場合はnilを返す。
func (r *PostgresTournamentDayRepo) FindByID(ctx context.Context, tournamentID, id string) (*model.TournamentDay, error) {
	if !validID(tournamentID) || !validID(id) {
		return nil, nil
	}

	d, err := scanDay(r.db.QueryRowContext(ctx,
		`SELECT `+dayColumns+` FROM tournament_days WHERE id = $1 AND tournament_id = $2`,
		id, tournamentID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tournament day: %w", err)
	}
	return d, nil
}

// ExistsDayNumber は同一大会内でday_numberが使われているかを返す。
func (r *PostgresTournamentDayRepo) ExistsDayNumber(ctx context.Context, tournamentID string, dayNumber int, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM tournament_days
		   WHERE tournament_id = $1 AND day_number = $2 AND ($3 = '' OR id::text <> $3)
		 )`,
		tournamentID, dayNumber, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check day number: %w", err)
	}
	return exists, nil
}

// Create は開催日を作成する。day_number重複時はErrDuplicateDayNumberを返す。
func (r *PostgresTournamentDayRepo) Create(ctx context.Context, d *model.TournamentDay) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tournament_days
		   (id, tournament_id, day_number, date, name, description, start_time, end_time, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.TournamentID, d.DayNumber, d.Date, d.Name, d.Description,
		d.StartTime, d.EndTime, d.IsActive, d.CreatedAt, d.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateDayNumber
	}
	if err != nil {
		return fmt.Errorf("failed to insert tournament day: %w", err)
	}
	return nil
}

// Update は開催日を更新する。対象がない場合はfalseを返す。
func (r *PostgresTournamentDayRepo) Update(ctx context.Context, d *model.TournamentDay) (bool, error) {
	if !validID(d.TournamentID) || !validID(d.ID) {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE tournament_days
		 SET day_number = $3, date = $4, name = $5, description = $6,
		     start_time = $7, end_time = $8, is_active = $9, updated_at = $10
		 WHERE id = $1 AND tournament_id = $2`,
		d.ID, d.TournamentID, d.DayNumber, d.Date, d.Name, d.Description,
		d.StartTime, d.EndTime, d.IsActive, d.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return false, ErrDuplicateDayNumber
	}
	if err != nil {
		return false, fmt.Errorf("failed to update tournament day: %w", err)
	}
	return affected(result)
}

// Delete は開催日を削除する。対象がない場合はfalseを返す。
func (r *PostgresTournamentDayRepo) Delete(ctx context.Context, tournamentID, id string) (bool, error) {
	if !validID(tournamentID) || !validID(id) {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tournament_days WHERE id = $1 AND tournament_id = $2`,
		id, tournamentID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete tournament day: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ TournamentDayRepository = (*PostgresTournamentDayRepo)(nil)
