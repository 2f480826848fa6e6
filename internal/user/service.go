// Package user は管理者によるユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/tkdadmin/internal/model"
	"github.com/hitoshi/tkdadmin/internal/repository"
)

// SessionRevoker はユーザーの全セッション破棄インターフェース。
// auth.SessionManager が満たす。
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	sessions SessionRevoker
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, sessions SessionRevoker) *Service {
	return &Service{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// List は全ユーザーを作成日時の新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// SetActive はユーザーの有効・無効を切り替える。
// 無効化した場合はそのユーザーの全セッションを破棄する。自分自身は無効化できない。
func (s *Service) SetActive(ctx context.Context, actor *model.User, userID string, active bool) (*model.User, error) {
	if !active && actor.ID == userID {
		return nil, model.NewSelfModificationError()
	}

	ok, err := s.userRepo.UpdateActive(ctx, userID, active)
	if err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	if !ok {
		return nil, model.NewUserNotFoundError(userID)
	}

	if !active {
		if err := s.sessions.RevokeAll(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to revoke sessions: %w", err)
		}
	}

	slog.Info("user status changed",
		slog.String("actor_id", actor.ID),
		slog.String("user_id", userID),
		slog.Bool("active", active),
	)

	return s.reload(ctx, userID)
}

// ChangeRole はユーザーのロールを変更する。自分自身のロールは変更できない。
func (s *Service) ChangeRole(ctx context.Context, actor *model.User, userID string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, model.NewValidationError("Invalid role")
	}
	if actor.ID == userID {
		return nil, model.NewSelfModificationError()
	}

	ok, err := s.userRepo.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}
	if !ok {
		return nil, model.NewUserNotFoundError(userID)
	}

	slog.Info("user role changed",
		slog.String("actor_id", actor.ID),
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)

	return s.reload(ctx, userID)
}

func (s *Service) reload(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(userID)
	}
	return user, nil
}
