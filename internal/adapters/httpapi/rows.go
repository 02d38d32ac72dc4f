package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"occucalc/internal/core"
	"occucalc/pkg/domain"
)

type rowsResponse struct {
	Rows  []domain.Row `json:"rows"`
	Count int          `json:"count"`
}

// listRows projects the active collection. search, sort and dir override the
// session view state for this request only.
func (s *Server) listRows(c echo.Context) error {
	snap := s.ws.Snapshot()
	q := core.ViewQuery{FilterType: snap.Preferences.FilterType, Search: snap.Search, Sort: snap.Sort}
	if v := c.QueryParam("filter"); v != "" {
		q.FilterType = v
	}
	if c.QueryParams().Has("search") {
		q.Search = c.QueryParam("search")
	}
	if v := c.QueryParam("sort"); v != "" {
		key, ok := domain.ParseSortKey(v)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown sort key "+strconv.Quote(v))
		}
		q.Sort = core.Sorter{Key: key, Dir: domain.SortAsc}
	}
	switch strings.ToLower(c.QueryParam("dir")) {
	case "desc":
		q.Sort.Dir = domain.SortDesc
	case "asc":
		q.Sort.Dir = domain.SortAsc
	}
	rows := s.ws.ViewWith(q)
	return c.JSON(http.StatusOK, rowsResponse{Rows: rows, Count: len(rows)})
}

type rowResponse struct {
	Changed bool       `json:"changed"`
	Row     domain.Row `json:"row"`
}

type addRowsRequest struct {
	Count int `json:"count"`
}

func (s *Server) addRows(c echo.Context) error {
	req := addRowsRequest{Count: 1}
	if err := c.Bind(&req); err != nil {
		return err
	}
	return s.mutated(c, s.ws.AddRows(c.Request().Context(), req.Count))
}

func (s *Server) addRowsPerType(c echo.Context) error {
	return s.mutated(c, s.ws.AddOnePerType(c.Request().Context()))
}

func (s *Server) clearRows(c echo.Context) error {
	return s.mutated(c, s.ws.Clear(c.Request().Context()))
}

func rowID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "row id must be an integer")
	}
	return id, nil
}

// patchRow applies every recognized field of the body in turn. Values may
// be strings or numbers.
func (s *Server) patchRow(c echo.Context) error {
	id, err := rowID(c)
	if err != nil {
		return err
	}
	if _, ok := s.ws.Row(id); !ok {
		return domain.NotFoundError{Entity: "row", ID: c.Param("id")}
	}
	var body map[string]any
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return err
	}
	changed := false
	for k, v := range body {
		field, ok := domain.ParseField(k)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown field "+strconv.Quote(k))
		}
		if s.ws.UpdateField(c.Request().Context(), id, field, factorRequest{Value: v}.text()) {
			changed = true
		}
	}
	row, _ := s.ws.Row(id)
	return c.JSON(http.StatusOK, rowResponse{Changed: changed, Row: row})
}

func (s *Server) deleteRow(c echo.Context) error {
	id, err := rowID(c)
	if err != nil {
		return err
	}
	if !s.ws.RemoveRow(c.Request().Context(), id) {
		return domain.NotFoundError{Entity: "row", ID: c.Param("id")}
	}
	return c.NoContent(http.StatusNoContent)
}

type selectionRequest struct {
	IDs      []int `json:"ids"`
	All      bool  `json:"all"`
	Selected bool  `json:"selected"`
}

func (s *Server) selectRows(c echo.Context) error {
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if req.All {
		return s.mutated(c, s.ws.SetSelectionAll(ctx, req.Selected))
	}
	changed := false
	for _, id := range req.IDs {
		if s.ws.SetSelected(ctx, id, req.Selected) {
			changed = true
		}
	}
	return s.mutated(c, changed)
}

type bulkRequest struct {
	Action string `json:"action"`
	Type   string `json:"type"`
}

// bulkRows runs one action over the selected rows.
func (s *Server) bulkRows(c echo.Context) error {
	var req bulkRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "apply_type":
		return s.mutated(c, s.ws.ApplyTypeToSelected(ctx, req.Type))
	case "duplicate":
		return s.mutated(c, s.ws.DuplicateSelected(ctx))
	case "delete":
		return s.mutated(c, s.ws.DeleteSelected(ctx))
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "action must be apply_type, duplicate or delete")
	}
}

func (s *Server) totals(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ws.Totals())
}
