package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"occucalc/internal/core"
	"occucalc/pkg/domain"
)

// mutationResponse reports whether a mutation changed state, followed by the
// resulting workspace.
type mutationResponse struct {
	Changed   bool          `json:"changed"`
	Workspace core.Snapshot `json:"workspace"`
}

func (s *Server) mutated(c echo.Context, changed bool) error {
	return c.JSON(http.StatusOK, mutationResponse{Changed: changed, Workspace: s.ws.Snapshot()})
}

func (s *Server) getWorkspace(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ws.Snapshot())
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) putMode(c echo.Context) error {
	var req modeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	mode, ok := domain.ParseMode(req.Mode)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be manual or upload")
	}
	return s.mutated(c, s.ws.SetMode(c.Request().Context(), mode))
}

type codeRequest struct {
	CodeID string `json:"code_id"`
}

func (s *Server) putCode(c echo.Context) error {
	var req codeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	before := s.ws.Preferences().CodeID
	if err := s.ws.UseCode(c.Request().Context(), req.CodeID); err != nil {
		return err
	}
	return s.mutated(c, before != s.ws.Preferences().CodeID)
}

type filterRequest struct {
	Type string `json:"type"`
}

func (s *Server) putFilter(c echo.Context) error {
	var req filterRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return s.mutated(c, s.ws.SetFilter(c.Request().Context(), req.Type))
}

type codeView struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
	Types  int    `json:"types"`
}

func (s *Server) listCodes(c echo.Context) error {
	active := s.ws.Preferences().CodeID
	sets := s.ws.Registry().CodeSets()
	out := make([]codeView, 0, len(sets))
	for _, cs := range sets {
		out = append(out, codeView{ID: cs.ID, Label: cs.Label, Active: cs.ID == active, Types: cs.Factors.Len()})
	}
	return c.JSON(http.StatusOK, out)
}

type factorView struct {
	Type   string  `json:"type"`
	Value  float64 `json:"value"`
	Custom bool    `json:"custom"`
}

type factorsResponse struct {
	CodeID  string       `json:"code_id"`
	Label   string       `json:"label"`
	Factors []factorView `json:"factors"`
}

func (s *Server) listFactors(c echo.Context) error {
	prefs := s.ws.Preferences()
	base := s.ws.Registry().Base(prefs.CodeID)
	resp := factorsResponse{CodeID: prefs.CodeID, Label: s.ws.Label(), Factors: []factorView{}}
	for _, f := range s.ws.Factors().Entries() {
		resp.Factors = append(resp.Factors, factorView{Type: f.Type, Value: f.Value, Custom: !base.Has(f.Type)})
	}
	return c.JSON(http.StatusOK, resp)
}

// factorRequest accepts the value as a JSON number or as typed text.
type factorRequest struct {
	Value any `json:"value"`
}

func (r factorRequest) text() string {
	switch v := r.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func (s *Server) setFactor(c echo.Context) error {
	var req factorRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	typ := pathParam(c, "type")
	if !s.ws.Factors().Has(strings.TrimSpace(typ)) {
		return domain.NotFoundError{Entity: "occupancy type", ID: typ}
	}
	return s.mutated(c, s.ws.SetFactor(c.Request().Context(), typ, req.text()))
}

type addTypeRequest struct {
	Name string `json:"name"`
}

func (s *Server) addFactor(c echo.Context) error {
	var req addTypeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return s.mutated(c, s.ws.AddType(c.Request().Context(), req.Name))
}

func (s *Server) deleteFactor(c echo.Context) error {
	return s.mutated(c, s.ws.DeleteType(c.Request().Context(), pathParam(c, "type")))
}

func (s *Server) resetFactors(c echo.Context) error {
	var req codeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return s.mutated(c, s.ws.ResetCode(c.Request().Context(), req.CodeID))
}

// pathParam returns a path parameter with percent-escapes decoded.
func pathParam(c echo.Context, name string) string {
	v := c.Param(name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}
