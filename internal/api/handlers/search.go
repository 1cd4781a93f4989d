package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jellysearch/jellysearch/internal/proxy"
)

// SearchService answers search-capable requests.
type SearchService interface {
	Handle(ctx context.Context, req proxy.Request) proxy.Response
}

// SearchHandler serves the intercepted Jellyfin item endpoints.
type SearchHandler struct {
	service SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// RegisterRoutes registers the intercepted endpoints on e.
func (h *SearchHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/Items", h.Search)
	e.GET("/Users/:userId/Items", h.Search)
	e.GET("/Persons", h.Search)
	e.GET("/Artists", h.Search)
	e.GET("/Artists/AlbumArtists", h.Search)
	e.GET("/Genres", h.Search)
}

// Search always answers 200 with a JSON item query result.
func (h *SearchHandler) Search(c echo.Context) error {
	req := c.Request()
	resp := h.service.Handle(req.Context(), proxy.Request{
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
		UserID:   c.Param("userId"),
		Header:   req.Header,
	})
	return c.JSONBlob(http.StatusOK, resp.Body)
}
