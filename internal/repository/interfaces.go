// Package repository はデータ永続化のインターフェースと実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/tkdadmin/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を示す。
var ErrDuplicateEmail = errors.New("email already exists")

// ErrDuplicateDayNumber は同一大会内の開催日番号の一意制約違反を示す。
var ErrDuplicateDayNumber = errors.New("day number already exists for tournament")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレス重複時はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// List は全ユーザーを作成日時の新しい順に返す。
	List(ctx context.Context) ([]*model.User, error)

	// UpdateRole はユーザーのロールを更新する。対象がない場合はfalseを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (bool, error)

	// UpdateActive はユーザーの有効・無効を更新する。対象がない場合はfalseを返す。
	UpdateActive(ctx context.Context, id string, active bool) (bool, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindActiveUser はトークンに紐付く有効なユーザーを取得する。
	// トークンが存在しない、期限切れ、ユーザーが無効のいずれかの場合はnilを返す。
	FindActiveUser(ctx context.Context, token string) (*model.User, error)

	// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// TournamentRepository は大会データの永続化インターフェース。
type TournamentRepository interface {
	// List は大会一覧を状態（ongoing, registration, planning, completed, その他）、開始日の降順で返す。
	List(ctx context.Context) ([]*model.Tournament, error)

	// FindByID は指定IDの大会を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Tournament, error)

	// Create は大会を作成する。
	Create(ctx context.Context, t *model.Tournament) error

	// Update は大会を更新する。対象がない場合はfalseを返す。
	Update(ctx context.Context, t *model.Tournament) (bool, error)

	// Delete は大会を削除する。開催日はCASCADE削除される。対象がない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// TournamentDayRepository は大会開催日データの永続化インターフェース。
type TournamentDayRepository interface {
	// ListByTournament は大会の開催日をday_numberの昇順で返す。
	ListByTournament(ctx context.Context, tournamentID string) ([]*model.TournamentDay, error)

	// FindByID は大会IDと開催日IDで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, tournamentID, id string) (*model.TournamentDay, error)

	// ExistsDayNumber は同一大会内でday_numberが使われているかを返す。
	// excludeIDが空でない場合はそのIDを除外して判定する。
	ExistsDayNumber(ctx context.Context, tournamentID string, dayNumber int, excludeID string) (bool, error)

	// Create は開催日を作成する。day_number重複時はErrDuplicateDayNumberを返す。
	Create(ctx context.Context, day *model.TournamentDay) error

	// Update は開催日を更新する。対象がない場合はfalseを返す。
	Update(ctx context.Context, day *model.TournamentDay) (bool, error)

	// Delete は開催日を削除する。対象がない場合はfalseを返す。
	Delete(ctx context.Context, tournamentID, id string) (bool, error)
}

// DocumentRepository はアップロードファイルのメタデータ永続化インターフェース。
type DocumentRepository interface {
	// Create はメタデータを保存する。
	Create(ctx context.Context, doc *model.Document) error

	// ListByTournament は大会に紐付くファイルを新しい順に返す。
	ListByTournament(ctx context.Context, tournamentID string) ([]*model.Document, error)
}
