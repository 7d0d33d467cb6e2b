package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SamahJonathan/licitacion-ia/model"
	"github.com/SamahJonathan/licitacion-ia/pkg/logger"
)

// ErrTenderNotFound is returned when a chat references an unknown tender id.
var ErrTenderNotFound = errors.New("tender not found")

// Oracle is the external language model, used for phrasing only.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatService answers free-text questions about one stored tender. The
// oracle is instructed to answer only from the supplied context block; that
// instruction is best-effort, nothing verifies the model's adherence.
type ChatService struct {
	store  RecordStore
	oracle Oracle
}

func NewChatService(store RecordStore, oracle Oracle) *ChatService {
	return &ChatService{
		store:  store,
		oracle: oracle,
	}
}

// Answer grounds the user's question in the stored tender and asks the
// oracle to phrase a reply.
func (s *ChatService) Answer(ctx context.Context, tenderID int64, prompt string) (string, error) {
	tender, err := s.store.GetTender(ctx, tenderID)
	if err != nil {
		return "", err
	}
	if tender == nil {
		return "", ErrTenderNotFound
	}

	// Attachment names enrich the context but are optional: when the lookup
	// fails the answer proceeds without file data rather than failing.
	var fileNames []string
	if names, err := s.store.ListFileNames(ctx, tenderID); err != nil {
		logger.Warn(ctx, "attachment listing unavailable", "tender_id", tenderID, "error", err)
	} else {
		fileNames = names
	}

	fullPrompt := fmt.Sprintf(
		"%s\nPregunta del usuario: %s\n\nResponde a la pregunta del usuario basándote únicamente en el contexto proporcionado. Si la pregunta es sobre un archivo, menciona su nombre.",
		BuildContext(tender, fileNames), prompt)

	return s.oracle.Generate(ctx, fullPrompt)
}

// BuildContext renders the deterministic context block handed to the oracle.
// Absent amounts get an explicit placeholder so the model never sees a bare
// empty value.
func BuildContext(t *model.Tender, fileNames []string) string {
	amount := t.Amount
	if amount == "" {
		amount = "No especificado"
	}

	var b strings.Builder
	b.WriteString("Contexto de la Licitación:\n")
	fmt.Fprintf(&b, " - Nombre: %s\n", t.Name)
	fmt.Fprintf(&b, " - Número: %s\n", t.Number)
	fmt.Fprintf(&b, " - Estado: %s\n", t.Status)
	fmt.Fprintf(&b, " - Monto: %s\n", amount)
	fmt.Fprintf(&b, " - Fecha de Cierre: %s\n", formatClosingDate(t.ClosingDate))
	fmt.Fprintf(&b, " - Entidad: %s\n", t.Entity)

	if len(fileNames) > 0 {
		b.WriteString(" - Archivos adjuntos:\n")
		for _, name := range fileNames {
			fmt.Fprintf(&b, "   - %s\n", name)
		}
	}

	return b.String()
}

// closingDateLayouts are the date shapes the portal has been seen printing.
var closingDateLayouts = []string{
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2006-01-02T15:04:05Z07:00",
}

// formatClosingDate normalizes a parseable closing date to a local date-time
// shape and passes anything else through verbatim.
func formatClosingDate(raw string) string {
	for _, layout := range closingDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("02-01-2006 15:04")
		}
	}
	return raw
}
