package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/SamahJonathan/licitacion-ia/pkg/logger"
	"github.com/SamahJonathan/licitacion-ia/service"
	"github.com/gin-gonic/gin"
)

// Answerer produces a grounded answer about one stored tender.
type Answerer interface {
	Answer(ctx context.Context, tenderID int64, prompt string) (string, error)
}

type ChatHandler struct {
	chat Answerer
}

func NewChatHandler(chat Answerer) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type ChatRequest struct {
	Prompt   string `json:"prompt"`
	TenderID int64  `json:"tender_id"`
}

// Ask answers a free-text question about a stored tender.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" || req.TenderID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El prompt y el ID de la licitación son requeridos."})
		return
	}

	answer, err := h.chat.Answer(c.Request.Context(), req.TenderID, req.Prompt)
	if err != nil {
		if errors.Is(err, service.ErrTenderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Licitación no encontrada."})
			return
		}
		logger.Error(c.Request.Context(), "chat failed", "tender_id", req.TenderID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Error al procesar la solicitud de chat.",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": answer})
}
