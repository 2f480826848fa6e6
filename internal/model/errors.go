package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, tournament, upload, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeAccountDeactivated  = "ACCOUNT_DEACTIVATED"
	ErrCodeEmailTaken          = "EMAIL_TAKEN"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeSelfModification    = "SELF_MODIFICATION"
	ErrCodeTournamentNotFound  = "TOURNAMENT_NOT_FOUND"
	ErrCodeDayNotFound         = "TOURNAMENT_DAY_NOT_FOUND"
	ErrCodeDayNumberTaken      = "DAY_NUMBER_TAKEN"
	ErrCodeFileTooLarge        = "FILE_TOO_LARGE"
	ErrCodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	ErrCodeUploadsDisabled     = "UPLOADS_DISABLED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required.",
		Category: "auth",
		Action:   "Please sign in.",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "You do not have permission to access this resource.",
		Category: "auth",
		Action:   "Ask an administrator for a role with the required access.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスの存在有無を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "Check your email and password and try again.",
	}
}

// NewAccountDeactivatedError は無効化されたアカウントでのログインエラーを生成する。
func NewAccountDeactivatedError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountDeactivated,
		Message:  "Account is deactivated",
		Category: "auth",
		Action:   "Contact an administrator to reactivate your account.",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "An account with this email address already exists",
		Category: "validation",
		Action:   "Sign in with the existing account or use another email address.",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "Correct the input and submit again.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("User not found: %s", userID),
		Category: "auth",
		Action:   "Check the user ID.",
	}
}

// NewSelfModificationError は自分自身の無効化・降格を拒否するエラーを生成する。
func NewSelfModificationError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfModification,
		Message:  "You cannot change your own status or role.",
		Category: "validation",
		Action:   "Ask another administrator to perform this change.",
	}
}

// NewTournamentNotFoundError は大会未検出エラーを生成する。
func NewTournamentNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeTournamentNotFound,
		Message:  fmt.Sprintf("Tournament not found: %s", id),
		Category: "tournament",
		Action:   "Check the tournament ID.",
	}
}

// NewDayNotFoundError は開催日未検出エラーを生成する。
func NewDayNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeDayNotFound,
		Message:  fmt.Sprintf("Tournament day not found: %s", id),
		Category: "tournament",
		Action:   "Check the tournament day ID.",
	}
}

// NewDayNumberTakenError は同一大会内の開催日番号重複エラーを生成する。
func NewDayNumberTakenError(dayNumber int) *APIError {
	return &APIError{
		Code:     ErrCodeDayNumberTaken,
		Message:  fmt.Sprintf("Day number %d already exists for this tournament", dayNumber),
		Category: "validation",
		Action:   "Choose a different day number.",
	}
}

// NewFileTooLargeError はアップロードサイズ超過エラーを生成する。
func NewFileTooLargeError(limit int64) *APIError {
	return &APIError{
		Code:     ErrCodeFileTooLarge,
		Message:  fmt.Sprintf("File size exceeds the limit of %d MB", limit/(1024*1024)),
		Category: "upload",
		Action:   "Upload a smaller file.",
	}
}

// NewUnsupportedFileTypeError は許可されていないファイル形式のエラーを生成する。
func NewUnsupportedFileTypeError(contentType string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedFileType,
		Message:  fmt.Sprintf("Unsupported file type: %s", contentType),
		Category: "upload",
		Action:   "Only images and PDF files are allowed.",
	}
}

// NewUploadsDisabledError はオブジェクトストレージ未設定時のエラーを生成する。
func NewUploadsDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeUploadsDisabled,
		Message:  "File uploads are not configured on this server.",
		Category: "upload",
		Action:   "Contact an administrator.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}
