package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/SamahJonathan/licitacion-ia/model"
	"github.com/SamahJonathan/licitacion-ia/pkg/logger"
	"github.com/SamahJonathan/licitacion-ia/service"
	"github.com/gin-gonic/gin"
)

// portalDomain marks URLs this system is willing to scrape.
const portalDomain = "mercadopublico.cl"

// Ingestor runs the scrape pipeline for one tender URL.
type Ingestor interface {
	Ingest(ctx context.Context, url string) (*model.Tender, error)
}

type TenderHandler struct {
	ingestor Ingestor
	store    service.RecordStore
}

func NewTenderHandler(ingestor Ingestor, store service.RecordStore) *TenderHandler {
	return &TenderHandler{
		ingestor: ingestor,
		store:    store,
	}
}

type ScrapeRequest struct {
	URL string `json:"url"`
}

// List returns the scrape history, newest first. A store failure degrades to
// an empty list with an error flag rather than a non-2xx response.
func (h *TenderHandler) List(c *gin.Context) {
	tenders, err := h.store.ListTenders(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "failed to list tenders", "error", err)
		c.JSON(http.StatusOK, gin.H{
			"tenders": []*model.Tender{},
			"error":   "No se pudo cargar el historial.",
		})
		return
	}

	if tenders == nil {
		tenders = []*model.Tender{}
	}
	c.JSON(http.StatusOK, gin.H{"tenders": tenders})
}

// Scrape ingests one tender page. Per-attachment failures are invisible
// here: as long as the tender row was written the scrape reports success,
// and failed annexes are only observable in their rows.
func (h *TenderHandler) Scrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !strings.Contains(req.URL, portalDomain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL de Mercado Público no válida."})
		return
	}

	tender, err := h.ingestor.Ingest(c.Request.Context(), req.URL)
	if err != nil {
		logger.Error(c.Request.Context(), "scrape failed", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Ocurrió un error en el servidor.",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scraping y almacenamiento completados con éxito.",
		"data":    tender,
	})
}
