// Package auth はパスワード認証、セッション管理、ロール階層による認可を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/tkdadmin/internal/metrics"
	"github.com/hitoshi/tkdadmin/internal/model"
	"github.com/hitoshi/tkdadmin/internal/repository"
)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// RegistrationMaxRole は自己登録で選択できる最上位のロール。
	RegistrationMaxRole model.Role
}

// Service は登録・ログイン・ログアウトのビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   *PasswordHasher
	sessions *SessionManager
	metrics  metrics.MetricsCollector
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	hasher *PasswordHasher,
	sessions *SessionManager,
	mc metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	if !config.RegistrationMaxRole.Valid() {
		config.RegistrationMaxRole = model.RoleOperator
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		sessions: sessions,
		metrics:  mc,
		config:   config,
	}
}

// Register はユーザーを作成し、そのままログイン状態にする。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, *model.Session, error) {
	email := NormalizeEmail(in.Email)
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)

	if email == "" || in.Password == "" || firstName == "" || lastName == "" || in.Role == "" {
		return nil, nil, model.NewValidationError("All fields are required")
	}
	if !ValidEmail(email) {
		return nil, nil, model.NewValidationError("Please enter a valid email address")
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, nil, passwordValidationError(err)
	}
	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, nil, model.NewValidationError("Invalid role")
	}
	if !HasPermission(s.config.RegistrationMaxRole, role) {
		return nil, nil, model.NewValidationError(
			fmt.Sprintf("The %s role cannot be chosen at registration", role))
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, nil, model.NewEmailTakenError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, model.NewEmailTakenError()
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login はメールアドレスとパスワードで認証し、セッションを発行する。
// 未登録メールと不一致パスワードは同一のエラーを返す。
// 無効化されたアカウントはパスワード照合前に拒否する。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, model.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginError)
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.metrics.RecordLogin(metrics.LoginInvalidCredentials)
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if !user.IsActive {
		s.metrics.RecordLogin(metrics.LoginDeactivated)
		slog.Warn("login attempt for deactivated account", slog.String("user_id", user.ID))
		return nil, nil, model.NewAccountDeactivatedError()
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.RecordLogin(metrics.LoginInvalidCredentials)
		return nil, nil, model.NewInvalidCredentialsError()
	}

	session, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginError)
		return nil, nil, err
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, session, nil
}

// Logout はセッションを破棄する。何度呼んでもエラーにならない。
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// CurrentUser はトークンに紐付く有効なユーザーを返す。
func (s *Service) CurrentUser(ctx context.Context, token string) (*model.User, bool) {
	return s.sessions.GetSession(ctx, token)
}

// NormalizeEmail は比較用にメールアドレスを正規化する。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail はメールアドレスが最低限の形式（local@domain）を満たすかを返す。
func ValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

func passwordValidationError(err error) *model.APIError {
	if errors.Is(err, ErrPasswordTooLong) {
		return model.NewValidationError(
			fmt.Sprintf("Password must be at most %d bytes long", MaxPasswordBytes))
	}
	return model.NewValidationError(
		fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
}
