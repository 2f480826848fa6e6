package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/tkdadmin/internal/model"
)

// PostgresDocumentRepo はPostgreSQLを使用したアップロードファイルのメタデータリポジトリ。
type PostgresDocumentRepo struct {
	db *sql.DB
}

// NewPostgresDocumentRepo はPostgresDocumentRepoを生成する。
func NewPostgresDocumentRepo(db *sql.DB) *PostgresDocumentRepo {
	return &PostgresDocumentRepo{db: db}
}

// Create はメタデータを保存する。
func (r *PostgresDocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	var tournamentID sql.NullString
	if doc.TournamentID != "" {
		tournamentID = sql.NullString{String: doc.TournamentID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents
		   (id, tournament_id, folder, file_name, object_key, url, content_type, size_bytes, uploaded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, tournamentID, doc.Folder, doc.FileName, doc.ObjectKey, doc.URL,
		doc.ContentType, doc.SizeBytes, doc.UploadedBy, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// ListByTournament は大会に紐付くファイルを新しい順に返す。
func (r *PostgresDocumentRepo) ListByTournament(ctx context.Context, tournamentID string) ([]*model.Document, error) {
	if !validID(tournamentID) {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tournament_id, folder, file_name, object_key, url, content_type, size_bytes, uploaded_by, created_at
		 FROM documents
		 WHERE tournament_id = $1
		 ORDER BY created_at DESC`,
		tournamentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*model.Document
	for rows.Next() {
		d := &model.Document{}
		var tid sql.NullString
		if err := rows.Scan(
			&d.ID, &tid, &d.Folder, &d.FileName, &d.ObjectKey, &d.URL,
			&d.ContentType, &d.SizeBytes, &d.UploadedBy, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.TournamentID = tid.String
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// compile-time interface check
var _ DocumentRepository = (*PostgresDocumentRepo)(nil)
