package handler // handler defines http handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// listMeta carries pagination data alongside list responses.
type listMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// ok writes the standard success envelope with a 200 status.
func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

// created writes the success envelope with a 201 status.
func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": data})
}

// noContent writes an empty 204 response for deletes.
func noContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// okList writes a paginated list envelope.
func okList(c echo.Context, data any, meta listMeta) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    data,
		"page":    meta.Page,
		"limit":   meta.Limit,
		"total":   meta.Total,
		"pages":   meta.Pages,
	})
}
