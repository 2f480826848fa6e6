// Package document は大会資料のアップロードを扱う。
package document

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/tkdadmin/internal/metrics"
	"github.com/hitoshi/tkdadmin/internal/model"
	"github.com/hitoshi/tkdadmin/internal/repository"
)

const (
	// DefaultFolder はフォルダ未指定時の保存先。
	DefaultFolder = "tournament-files"
	// DefaultMaxSize はアップロードサイズの既定上限（10MB）。
	DefaultMaxSize int64 = 10 * 1024 * 1024
)

var (
	folderPattern   = regexp.MustCompile(`^[a-z0-9-]+$`)
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

	allowedExtensions = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".gif":  "image/gif",
		".webp": "image/webp",
		".pdf":  "application/pdf",
	}

	// allowedContentTypes は公開URLから配信しても安全な種別。SVGはスクリプトを含み得るため除外する。
	allowedContentTypes = map[string]bool{
		"image/png":       true,
		"image/jpeg":      true,
		"image/gif":       true,
		"image/webp":      true,
		"application/pdf": true,
	}
)

// ObjectStore はオブジェクトストレージへの保存インターフェース。
// storage.S3Store が満たす。
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// TournamentFinder は大会の存在確認に使うインターフェース。
type TournamentFinder interface {
	FindByID(ctx context.Context, id string) (*model.Tournament, error)
}

// UploadInput はアップロード1件の入力。
type UploadInput struct {
	Uploader     *model.User
	Folder       string
	TournamentID string
	FileName     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Service はアップロードの検証、保存、メタデータ記録を行う。
type Service struct {
	store       ObjectStore
	docs        repository.DocumentRepository
	tournaments TournamentFinder
	metrics     metrics.MetricsCollector
	maxSize     int64
	now         func() time.Time
}

// NewService はServiceを生成する。storeがnilの場合アップロードは無効になる。
func NewService(
	store ObjectStore,
	docs repository.DocumentRepository,
	tournaments TournamentFinder,
	mc metrics.MetricsCollector,
	maxSize int64,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Service{
		store:       store,
		docs:        docs,
		tournaments: tournaments,
		metrics:     mc,
		maxSize:     maxSize,
		now:         time.Now,
	}
}

// Enabled はオブジェクトストレージが設定されているかを返す。
func (s *Service) Enabled() bool {
	return s.store != nil
}

// MaxSize はアップロードサイズの上限を返す。
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Upload はファイルを検証して保存し、メタデータを記録する。
func (s *Service) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if !s.Enabled() {
		return nil, model.NewUploadsDisabledError()
	}

	contentType, err := s.validate(ctx, &in)
	if err != nil {
		s.metrics.RecordUpload(metrics.UploadRejected)
		return nil, err
	}

	name := SanitizeFileName(in.FileName)
	key := fmt.Sprintf("%s/%s-%s", in.Folder, uuid.New().String(), name)

	url, err := s.store.Put(ctx, key, contentType, in.Body, in.Size)
	if err != nil {
		s.metrics.RecordUpload(metrics.UploadError)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	doc := &model.Document{
		ID:           uuid.New().String(),
		TournamentID: in.TournamentID,
		Folder:       in.Folder,
		FileName:     name,
		ObjectKey:    key,
		URL:          url,
		ContentType:  contentType,
		SizeBytes:    in.Size,
		UploadedBy:   in.Uploader.ID,
		CreatedAt:    s.now(),
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		s.metrics.RecordUpload(metrics.UploadError)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	s.metrics.RecordUpload(metrics.UploadSuccess)
	slog.Info("file uploaded",
		slog.String("key", key),
		slog.Int64("size", in.Size),
		slog.String("user_id", in.Uploader.ID),
	)
	return doc, nil
}

// ListByTournament は大会に紐付くファイルを返す。
// 大会が存在しない場合はTOURNAMENT_NOT_FOUNDを返す。
func (s *Service) ListByTournament(ctx context.Context, tournamentID string) ([]*model.Document, error) {
	if err := s.ensureTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	docs, err := s.docs.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if docs == nil {
		docs = []*model.Document{}
	}
	return docs, nil
}

// validate は入力を正規化して検証し、保存に使うContent-Typeを返す。
func (s *Service) validate(ctx context.Context, in *UploadInput) (string, error) {
	if in.Body == nil || strings.TrimSpace(in.FileName) == "" {
		return "", model.NewValidationError("No file provided")
	}
	if in.Size <= 0 {
		return "", model.NewValidationError("File is empty")
	}
	if in.Size > s.maxSize {
		return "", model.NewFileTooLargeError(s.maxSize)
	}

	contentType, ok := ResolveContentType(in.ContentType, in.FileName)
	if !ok {
		return "", model.NewUnsupportedFileTypeError(in.ContentType)
	}

	in.Folder = strings.TrimSpace(in.Folder)
	if in.Folder == "" {
		in.Folder = DefaultFolder
	}
	if !folderPattern.MatchString(in.Folder) {
		return "", model.NewValidationError("Folder may contain only lowercase letters, digits and hyphens")
	}

	if in.TournamentID != "" {
		if err := s.ensureTournament(ctx, in.TournamentID); err != nil {
			return "", err
		}
	}
	return contentType, nil
}

// ensureTournament は大会の存在を確認する。
func (s *Service) ensureTournament(ctx context.Context, tournamentID string) error {
	if s.tournaments == nil {
		return nil
	}
	t, err := s.tournaments.FindByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to find tournament: %w", err)
	}
	if t == nil {
		return model.NewTournamentNotFoundError(tournamentID)
	}
	return nil
}

// ResolveContentType は許可されたラスター画像またはPDFであればContent-Typeを返す。
// 申告されたContent-Typeが許可外の場合は拡張子から判定する。
func ResolveContentType(declared, fileName string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err == nil && allowedContentTypes[strings.ToLower(mediaType)] {
		return strings.ToLower(mediaType), true
	}
	if ct, ok := allowedExtensions[strings.ToLower(filepath.Ext(fileName))]; ok {
		return ct, true
	}
	return "", false
}

// SanitizeFileName はオブジェクトキーに使えるファイル名へ変換する。
func SanitizeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	cleaned := strings.Trim(unsafeNameChars.ReplaceAllString(base, "_"), "._")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}
