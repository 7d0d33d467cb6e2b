package model

import (
	"time"
)

// Tender represents one procurement opportunity scraped from Mercado Publico.
// A tender is inserted exactly once per successful scrape and never updated.
type Tender struct {
	ID          int64     `json:"id"`
	Number      string    `json:"number"`
	Name        string    `json:"name,omitempty"`
	Status      string    `json:"status,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	ClosingDate string    `json:"closing_date,omitempty"`
	Entity      string    `json:"entity,omitempty"`
	SourceURL   string    `json:"source_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// TenderFile is one stored (or failed) attachment row owned by a tender.
// A row is either a success row (PublicURL, StoragePath set) or a failure
// row (DownloadError set), never both.
type TenderFile struct {
	ID            int64     `json:"id"`
	TenderID      int64     `json:"tender_id"`
	Name          string    `json:"name"`
	PublicURL     string    `json:"public_url,omitempty"`
	StoragePath   string    `json:"storage_path,omitempty"`
	DownloadError string    `json:"download_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Failed reports whether the row records a failed ingestion.
func (f *TenderFile) Failed() bool {
	return f.DownloadError != ""
}
