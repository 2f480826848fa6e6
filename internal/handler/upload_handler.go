package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/tkdadmin/internal/document"
	"github.com/hitoshi/tkdadmin/internal/middleware"
	"github.com/hitoshi/tkdadmin/internal/model"
)

// multipartOverhead はファイル以外のパートと境界文字列のために許容する余裕。
const multipartOverhead = 1 << 20

// multipartMemory はParseMultipartFormがメモリに保持する上限。超過分は一時ファイルになる。
const multipartMemory = 8 << 20

// DocumentServiceInterface はアップロードハンドラーが必要とするサービスインターフェース。
type DocumentServiceInterface interface {
	Enabled() bool
	MaxSize() int64
	Upload(ctx context.Context, in document.UploadInput) (*model.Document, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*model.Document, error)
}

// UploadHandler はファイルアップロードのHTTPハンドラー。
type UploadHandler struct {
	service DocumentServiceInterface
}

// NewUploadHandler はUploadHandlerを生成する。
func NewUploadHandler(service DocumentServiceInterface) *UploadHandler {
	return &UploadHandler{service: service}
}

// uploadResponse はアップロード成功時のレスポンス。
type uploadResponse struct {
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
}

type documentResponse struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournament_id,omitempty"`
	Folder       string    `json:"folder"`
	FileName     string    `json:"file_name"`
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	FileSize     int64     `json:"file_size"`
	UploadedBy   string    `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// Upload はmultipartで送られたファイルをオブジェクトストレージに保存する。
// POST /api/uploads
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	if !h.service.Enabled() {
		handleServiceError(w, model.NewUploadsDisabledError())
		return
	}

	maxSize := h.service.MaxSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handleServiceError(w, model.NewFileTooLargeError(maxSize))
			return
		}
		handleServiceError(w, model.NewValidationError("Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		handleServiceError(w, model.NewValidationError("No file provided"))
		return
	}
	defer file.Close()

	doc, err := h.service.Upload(r.Context(), document.UploadInput{
		Uploader:     user,
		Folder:       r.FormValue("folder"),
		TournamentID: r.FormValue("tournament_id"),
		FileName:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		URL:         doc.URL,
		FileName:    doc.FileName,
		FileSize:    doc.SizeBytes,
		ContentType: doc.ContentType,
	})
}

// ListDocuments は大会に紐付くファイル一覧を返す。
// GET /api/tournaments/{id}/documents
func (h *UploadHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListByTournament(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, documentResponse{
			ID:           d.ID,
			TournamentID: d.TournamentID,
			Folder:       d.Folder,
			FileName:     d.FileName,
			URL:          d.URL,
			ContentType:  d.ContentType,
			FileSize:     d.SizeBytes,
			UploadedBy:   d.UploadedBy,
			CreatedAt:    d.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
