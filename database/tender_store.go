package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SamahJonathan/licitacion-ia/model"
)

// TenderStore persists tenders and their attachment rows. Both tables are
// insert-only from this application's point of view.
type TenderStore struct {
	db *sql.DB
}

func NewTenderStore(db *sql.DB) *TenderStore {
	return &TenderStore{db: db}
}

// InsertTender writes one tender row and fills in the generated id.
func (s *TenderStore) InsertTender(ctx context.Context, t *model.Tender) error {
	err := s.db.QueryRowContext(ctx, `
		insert into tenders (number, name, status, amount, closing_date, entity, source_url)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id, created_at
	`, t.Number, nullable(t.Name), nullable(t.Status), nullable(t.Amount),
		nullable(t.ClosingDate), nullable(t.Entity), t.SourceURL).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tender: %w", err)
	}
	return nil
}

// GetTender returns one tender or nil when the id is unknown.
func (s *TenderStore) GetTender(ctx context.Context, id int64) (*model.Tender, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, number, name, status, amount, closing_date, entity, source_url, created_at
		from tenders
		where id = $1
	`, id)

	t, err := scanTender(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get tender: %w", err)
	}
	return t, nil
}

// ListTenders returns all tenders, newest first.
func (s *TenderStore) ListTenders(ctx context.Context) ([]*model.Tender, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, number, name, status, amount, closing_date, entity, source_url, created_at
		from tenders
		order by created_at desc
	`)
	if err != nil {
		return nil, fmt.Errorf("list tenders: %w", err)
	}
	defer rows.Close()

	var result []*model.Tender
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, fmt.Errorf("list tenders: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenders: %w", err)
	}
	return result, nil
}

// InsertFile writes one attachment row, success or failure shaped.
func (s *TenderStore) InsertFile(ctx context.Context, f *model.TenderFile) error {
	err := s.db.QueryRowContext(ctx, `
		insert into attachments (tender_id, name, public_url, storage_path, download_error)
		values ($1, $2, $3, $4, $5)
		returning id, created_at
	`, f.TenderID, f.Name, nullable(f.PublicURL), nullable(f.StoragePath),
		nullable(f.DownloadError)).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

// ListFileNames returns the attachment names recorded for one tender.
func (s *TenderStore) ListFileNames(ctx context.Context, tenderID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		select name from attachments where tender_id = $1 order by created_at
	`, tenderID)
	if err != nil {
		return nil, fmt.Errorf("list attachment names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list attachment names: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attachment names: %w", err)
	}
	return names, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTender(row rowScanner) (*model.Tender, error) {
	var t model.Tender
	var name, status, amount, closing, entity sql.NullString
	if err := row.Scan(&t.ID, &t.Number, &name, &status, &amount, &closing,
		&entity, &t.SourceURL, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Name = name.String
	t.Status = status.String
	t.Amount = amount.String
	t.ClosingDate = closing.String
	t.Entity = entity.String
	return &t, nil
}

// nullable maps "" to NULL so optional fields stay NULL in the schema.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
