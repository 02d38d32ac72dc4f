package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"occucalc/internal/adapters/exports"
	"occucalc/internal/adapters/sheets"
	"occucalc/internal/rooms"
	"occucalc/pkg/domain"
)

// importSheet replaces the upload collection with the rows of the multipart
// `file` field. A parse failure leaves the workspace untouched.
func (s *Server) importSheet(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" required")
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	rows, err := sheets.Import(f, fh.Filename, s.ws.Factors())
	if err != nil {
		s.log.Warn("import rejected", "file", fh.Filename, "error", err)
		return err
	}
	s.ws.ReplaceUpload(c.Request().Context(), rows)
	s.log.Info("import applied", "file", fh.Filename, "rows", len(rows))
	return s.mutated(c, true)
}

type exportRequest struct {
	Formats []exports.Format `json:"formats"`
}

func (s *Server) createExport(c echo.Context) error {
	if s.exports == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "exports not configured")
	}
	var req exportRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if len(req.Formats) == 0 {
		req.Formats = []exports.Format{exports.FormatXLSX}
	}
	rec, err := s.exports.Enqueue(c.Request().Context(), exports.Input{Formats: req.Formats, Data: s.ws.Contents()})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, rec)
}

func (s *Server) getExport(c echo.Context) error {
	if s.exports == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "exports not configured")
	}
	rec, ok := s.exports.Get(c.Param("id"))
	if !ok {
		return domain.NotFoundError{Entity: "export", ID: c.Param("id")}
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) getArtifact(c echo.Context) error {
	if s.exports == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "exports not configured")
	}
	var format exports.Format
	if v := c.QueryParam("format"); v != "" {
		f, err := exports.ParseFormat(v)
		if err != nil {
			return err
		}
		format = f
	}
	rec, ok := s.exports.Get(c.Param("id"))
	if !ok {
		return domain.NotFoundError{Entity: "export", ID: c.Param("id")}
	}
	if rec.Status != exports.StatusSucceeded {
		return echo.NewHTTPError(http.StatusConflict, fmt.Sprintf("export is %s", rec.Status))
	}
	a, rc, err := s.exports.Open(c.Request().Context(), rec.ID, format)
	if err != nil {
		return err
	}
	defer rc.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", a.FileName))
	return c.Stream(http.StatusOK, a.ContentType, rc)
}

func (s *Server) listRooms(c echo.Context) error {
	if s.rooms == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "rooms not configured")
	}
	return c.JSON(http.StatusOK, s.rooms.List(c.Request().Context()))
}

func (s *Server) createRoom(c echo.Context) error {
	if s.rooms == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "rooms not configured")
	}
	var in rooms.Input
	if err := c.Bind(&in); err != nil {
		return err
	}
	room, err := s.rooms.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, room)
}
