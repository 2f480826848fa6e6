package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tkdadmin/internal/model"
)

const tournamentColumns = `id, name, description, start_date, end_date, location, status,
	organizer, chairman, referee_chief, treasurer, admin_tournament, registration_fee,
	created_at, updated_at`

// PostgresTournamentRepo はPostgreSQLを使用した大会リポジトリ。
type PostgresTournamentRepo struct {
	db *sql.DB
}

// NewPostgresTournamentRepo はPostgresTournamentRepoを生成する。
func NewPostgresTournamentRepo(db *sql.DB) *PostgresTournamentRepo {
	return &PostgresTournamentRepo{db: db}
}

func scanTournament(row rowScanner) (*model.Tournament, error) {
	t := &model.Tournament{}
	var status string
	var fee sql.NullFloat64
	if err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.StartDate, &t.EndDate, &t.Location, &status,
		&t.Organizer, &t.Chairman, &t.RefereeChief, &t.Treasurer, &t.AdminTournament, &fee,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = model.TournamentStatus(status)
	if fee.Valid {
		v := fee.Float64
		t.RegistrationFee = &v
	}
	return t, nil
}

func nullableFee(fee *float64) sql.NullFloat64 {
	if fee == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *fee, Valid: true}
}

// List は大会一覧を状態の優先順、開始日の降順で返す。
func (r *PostgresTournamentRepo) List(ctx context.Context) ([]*model.Tournament, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tournamentColumns+`
		 FROM tournaments
		 ORDER BY
		   CASE status
		     WHEN 'ongoing' THEN 1
		     WHEN 'registration' THEN 2
		     WHEN 'planning' THEN 3
		     WHEN 'completed' THEN 4
		     ELSE 5
		   END,
		   start_date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*model.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tournaments: %w", err)
	}
	return tournaments, nil
}

// FindByID は指定IDの大会を取得する。見つからない場合はnilを返す。
func (r *PostgresTournamentRepo) FindByID(ctx context.Context, id string) (*model.Tournament, error) {
	if !validID(id) {
		return nil, nil
	}

	t, err := scanTournament(r.db.QueryRowContext(ctx,
		`SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tournament: %w", err)
	}
	return t, nil
}

// Create は大会を作成する。
func (r *PostgresTournamentRepo) Create(ctx context.Context, t *model.Tournament) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tournaments (`+tournamentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		t.ID, t.Name, t.Description, t.StartDate, t.EndDate, t.Location, string(t.Status),
		t.Organizer, t.Chairman, t.RefereeChief, t.Treasurer, t.AdminTournament, nullableFee(t.RegistrationFee),
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

// Update は大会を更新する。対象がない場合はfalseを返す。
func (r *PostgresTournamentRepo) Update(ctx context.Context, t *model.Tournament) (bool, error) {
	if !validID(t.ID) {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments
		 SET name = $2, description = $3, start_date = $4, end_date = $5, location = $6,
		     status = $7, organizer = $8, chairman = $9, referee_chief = $10, treasurer = $11,
		     admin_tournament = $12, registration_fee = $13, updated_at = $14
		 WHERE id = $1`,
		t.ID, t.Name, t.Description, t.StartDate, t.EndDate, t.Location,
		string(t.Status), t.Organizer, t.Chairman, t.RefereeChief, t.Treasurer,
		t.AdminTournament, nullableFee(t.RegistrationFee), t.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update tournament: %w", err)
	}
	return affected(result)
}

// Delete は大会を削除する。開催日はCASCADE削除される。対象がない場合はfalseを返す。
func (r *PostgresTournamentRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete tournament: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ TournamentRepository = (*PostgresTournamentRepo)(nil)
