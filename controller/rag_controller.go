package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github/itish2003/pdfrag/models"
	"github/itish2003/pdfrag/services"
)

// RAGController handles the HTTP requests for our RAG API. It depends on the
// RAGService and the Indexer to perform the actual work.
type RAGController struct {
	ragService services.RAGService
	indexer    services.Indexer
	pdfPath    string
}

// NewRAGController is called from main.go to inject the service dependencies.
func NewRAGController(ragService services.RAGService, indexer services.Indexer, pdfPath string) *RAGController {
	return &RAGController{
		ragService: ragService,
		indexer:    indexer,
		pdfPath:    pdfPath,
	}
}

// Ask is the Gin handler for POST /ask.
func (c *RAGController) Ask(ctx *gin.Context) {
	var req models.AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctx.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "Request body too large"})
			return
		}
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		ctx.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Question is required."})
		return
	}

	response, err := c.ragService.Ask(ctx.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Msg("CONTROLLER: /ask failed")
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// Index is the Gin handler for POST /index. It always indexes the configured PDF.
func (c *RAGController) Index(ctx *gin.Context) {
	count, err := c.indexer.Ingest(ctx.Request.Context(), c.pdfPath)
	if err != nil {
		log.Error().Err(err).Str("path", c.pdfPath).Msg("CONTROLLER: /index failed")
		ctx.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, models.IndexResponse{
		Status:  "ok",
		Message: fmt.Sprintf("Indexed %d chunks from %s", count, c.pdfPath),
	})
}
