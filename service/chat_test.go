package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/SamahJonathan/licitacion-ia/model"
)

type fakeOracle struct {
	lastPrompt string
	response   string
	err        error
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func storedTender() *model.Tender {
	return &model.Tender{
		ID:          1,
		Number:      "1234-56-L2024",
		Name:        "Servicio de aseo municipal",
		Status:      "Publicada",
		ClosingDate: "15-09-2026 15:00:00",
		Entity:      "Municipalidad de Renca",
		SourceURL:   "https://www.mercadopublico.cl/ficha",
	}
}

func TestAnswerGroundsPromptInStoredData(t *testing.T) {
	store := &fakeStore{}
	store.tenders = append(store.tenders, storedTender())
	store.files = append(store.files,
		&model.TenderFile{TenderID: 1, Name: "Bases.pdf"},
		&model.TenderFile{TenderID: 1, Name: "Anexo 1.pdf", DownloadError: "timeout"},
	)
	oracle := &fakeOracle{response: "La licitación cierra el 15 de septiembre."}
	svc := NewChatService(store, oracle)

	answer, err := svc.Answer(context.Background(), 1, "¿Cuándo cierra?")
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if answer != "La licitación cierra el 15 de septiembre." {
		t.Errorf("answer = %q", answer)
	}

	prompt := oracle.lastPrompt
	for _, want := range []string{
		"1234-56-L2024",
		"Servicio de aseo municipal",
		"¿Cuándo cierra?",
		"basándote únicamente en el contexto proporcionado",
		"Bases.pdf",
		"Anexo 1.pdf",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
}

func TestAnswerUnknownTender(t *testing.T) {
	svc := NewChatService(&fakeStore{}, &fakeOracle{})

	_, err := svc.Answer(context.Background(), 42, "¿Cuándo cierra?")
	if !errors.Is(err, ErrTenderNotFound) {
		t.Errorf("Expected ErrTenderNotFound, got %v", err)
	}
}

func TestAnswerProceedsWithoutAttachmentListing(t *testing.T) {
	store := &fakeStore{listNamesErr: errors.New("attachments table unavailable")}
	store.tenders = append(store.tenders, storedTender())
	oracle := &fakeOracle{response: "ok"}
	svc := NewChatService(store, oracle)

	if _, err := svc.Answer(context.Background(), 1, "¿Qué entidad licita?"); err != nil {
		t.Fatalf("Expected listing failure to be non-fatal, got %v", err)
	}
	if strings.Contains(oracle.lastPrompt, "Archivos adjuntos") {
		t.Error("Expected no attachment section without file data")
	}
}

func TestAnswerOracleErrorPropagates(t *testing.T) {
	store := &fakeStore{}
	store.tenders = append(store.tenders, storedTender())
	svc := NewChatService(store, &fakeOracle{err: errors.New("quota exceeded")})

	if _, err := svc.Answer(context.Background(), 1, "pregunta"); err == nil {
		t.Error("Expected oracle error to propagate")
	}
}

func TestBuildContext(t *testing.T) {
	tender := storedTender()
	tender.Amount = "$ 25.000.000"

	ctx := BuildContext(tender, []string{"Bases.pdf", "Anexo 1.pdf"})

	for _, want := range []string{
		"Contexto de la Licitación:",
		" - Nombre: Servicio de aseo municipal\n",
		" - Número: 1234-56-L2024\n",
		" - Estado: Publicada\n",
		" - Monto: $ 25.000.000\n",
		" - Fecha de Cierre: 15-09-2026 15:00\n",
		" - Entidad: Municipalidad de Renca\n",
		" - Archivos adjuntos:\n",
		"   - Bases.pdf\n",
		"   - Anexo 1.pdf\n",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("Expected context to contain %q, got:\n%s", want, ctx)
		}
	}
}

func TestBuildContextMissingAmount(t *testing.T) {
	ctx := BuildContext(storedTender(), nil)

	if !strings.Contains(ctx, " - Monto: No especificado\n") {
		t.Errorf("Expected explicit placeholder for missing amount, got:\n%s", ctx)
	}
	if strings.Contains(ctx, "null") || strings.Contains(ctx, "<nil>") {
		t.Errorf("Context must never contain a literal null:\n%s", ctx)
	}
	if strings.Contains(ctx, "Archivos adjuntos") {
		t.Error("Expected no attachment section for empty file list")
	}
}

func TestFormatClosingDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"seconds layout", "15-09-2026 15:00:00", "15-09-2026 15:00"},
		{"minutes layout", "01-10-2026 12:00", "01-10-2026 12:00"},
		{"unparseable passes through", "próximamente", "próximamente"},
		{"empty passes through", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatClosingDate(tt.input); got != tt.want {
				t.Errorf("formatClosingDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
