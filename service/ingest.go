package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/SamahJonathan/licitacion-ia/config"
	"github.com/SamahJonathan/licitacion-ia/model"
	"github.com/SamahJonathan/licitacion-ia/pkg/logger"
	"github.com/SamahJonathan/licitacion-ia/scraper"
)

// MissingFieldError means the page rendered but none of the selectors for a
// required field matched. Not retried: the selectors need operator attention.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("could not extract required field %q, the page selectors may need updating", e.Field)
}

// Renderer produces settled HTML for one URL.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RecordStore is the relational persistence for tenders and attachment rows.
type RecordStore interface {
	InsertTender(ctx context.Context, t *model.Tender) error
	GetTender(ctx context.Context, id int64) (*model.Tender, error)
	ListTenders(ctx context.Context) ([]*model.Tender, error)
	InsertFile(ctx context.Context, f *model.TenderFile) error
	ListFileNames(ctx context.Context, tenderID int64) ([]string, error)
}

// ContentStore is the blob storage for downloaded annex binaries.
type ContentStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// IngestService runs the scrape pipeline: render, extract, persist the
// tender, then ingest every annex concurrently with per-item isolation.
type IngestService struct {
	renderer      Renderer
	store         RecordStore
	files         ContentStore
	httpClient    *http.Client
	maxConcurrent int
	fileTimeout   time.Duration
	now           func() time.Time
}

func NewIngestService(renderer Renderer, store RecordStore, files ContentStore, cfg *config.ScraperConfig) *IngestService {
	return &IngestService{
		renderer:      renderer,
		store:         store,
		files:         files,
		httpClient:    &http.Client{},
		maxConcurrent: cfg.MaxConcurrentDownloads,
		fileTimeout:   time.Duration(cfg.AttachmentTimeoutSec) * time.Second,
		now:           time.Now,
	}
}

// Ingest scrapes one tender page and persists the result. The tender row is
// written before any attachment work starts; attachment failures never fail
// the ingestion, they become failure-marked rows instead. Can take minutes
// for tenders with many or large annexes.
func (s *IngestService) Ingest(ctx context.Context, pageURL string) (*model.Tender, error) {
	ctx = context.WithValue(ctx, logger.ScrapeURLKey, pageURL)
	logger.Info(ctx, "starting scrape")

	pageHTML, err := s.renderer.Render(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	ex, err := scraper.Extract(pageHTML, pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse rendered page: %w", err)
	}

	if ex.Number == "" {
		return nil, &MissingFieldError{Field: "number"}
	}

	tender := &model.Tender{
		Number:      ex.Number,
		Name:        ex.Name,
		Status:      ex.Status,
		Amount:      ex.Amount,
		ClosingDate: ex.ClosingDate,
		Entity:      ex.Entity,
		SourceURL:   pageURL,
	}
	if err := s.store.InsertTender(ctx, tender); err != nil {
		return nil, err
	}

	logger.Info(ctx, "tender stored",
		"tender_id", tender.ID,
		"number", tender.Number,
		"documents", len(ex.Documents),
	)

	// Bounded fan-out. Annexes settle in completion order; the only ordering
	// guarantee is that the tender row above precedes all of them.
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup
	for _, doc := range ex.Documents {
		wg.Add(1)
		go func(doc scraper.Attachment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fileCtx, cancel := context.WithTimeout(ctx, s.fileTimeout)
			defer cancel()
			s.ingestFile(fileCtx, tender.ID, doc)
		}(doc)
	}
	wg.Wait()

	logger.Info(ctx, "scrape completed", "tender_id", tender.ID)
	return tender, nil
}

// ingestFile handles one annex end to end and never propagates an error:
// every descriptor yields exactly one attachment row, success or failure.
func (s *IngestService) ingestFile(ctx context.Context, tenderID int64, doc scraper.Attachment) {
	file := &model.TenderFile{
		TenderID: tenderID,
		Name:     doc.Name,
	}

	if err := s.fetchAndStore(ctx, file, doc); err != nil {
		logger.Warn(ctx, "attachment ingestion failed", "name", doc.Name, "error", err)
		file.PublicURL = ""
		file.StoragePath = ""
		file.DownloadError = err.Error()
	}

	// The row write must survive an expired download deadline, otherwise a
	// timed-out annex would be silently dropped instead of failure-marked.
	rowCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.store.InsertFile(rowCtx, file); err != nil {
		logger.Error(ctx, "failed to record attachment row", "name", doc.Name, "error", err)
	}
}

// fetchAndStore downloads the annex binary and uploads it to the content
// store, filling in the file's storage path and public URL.
func (s *IngestService) fetchAndStore(ctx context.Context, file *model.TenderFile, doc scraper.Attachment) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.URL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := s.storageKey(file.TenderID, doc.Name)
	if err := s.files.Upload(ctx, key, data, contentType); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	file.StoragePath = key
	file.PublicURL = s.files.PublicURL(key)
	return nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// storageKey derives {tenderID}/{millis}_{sanitizedName}. The timestamp, not
// a content hash, keeps same-named annexes apart within a run, which also
// means re-scraping a tender stores new blobs rather than deduplicating.
func (s *IngestService) storageKey(tenderID int64, name string) string {
	return fmt.Sprintf("%d/%d_%s", tenderID, s.now().UnixMilli(), sanitizeFileName(name))
}

// sanitizeFileName replaces every character outside [A-Za-z0-9._-] so portal
// display names cannot inject path segments into storage keys.
func sanitizeFileName(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}
