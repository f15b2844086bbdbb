package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/biblioteca-api/internal/dto"
	"github.com/noah-isme/biblioteca-api/internal/models"
	appErrors "github.com/noah-isme/biblioteca-api/pkg/errors"
	"github.com/noah-isme/biblioteca-api/pkg/response"
)

type catalogReader interface {
	Books(ctx context.Context, category string) ([]models.BookRow, error)
	Categories() []string
}

// CatalogHandler serves the search page and the raw catalog API.
type CatalogHandler struct {
	catalog catalogReader
}

// NewCatalogHandler builds a new handler.
func NewCatalogHandler(catalog catalogReader) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Index renders the browser search page.
func (h *CatalogHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"categories": h.catalog.Categories(),
	})
}

// Books godoc
// @Summary List the full catalog
// @Tags Catalog
// @Produce json
// @Param category query string false "Restrict to one category"
// @Success 200 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /api/books [get]
func (h *CatalogHandler) Books(c *gin.Context) {
	var req dto.BooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid parameters"))
		return
	}

	books, err := h.catalog.Books(c.Request.Context(), req.Category)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SearchResult{Books: books, Count: len(books)})
}

// Categories godoc
// @Summary List catalog categories
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/categories [get]
func (h *CatalogHandler) Categories(c *gin.Context) {
	response.OK(c, dto.CategoriesResult{Categories: h.catalog.Categories()})
}
