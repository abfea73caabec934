package hostapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gogpu/glyphfield"
	"github.com/gogpu/glyphfield/camera"
	"github.com/gogpu/glyphfield/config"
	"github.com/gogpu/glyphfield/query"
)

type selectRequest struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Multi bool `json:"multi"`
}

type selectIDsRequest struct {
	IDs []uint32 `json:"ids"`
}

type filterResponse struct {
	Query   *query.Query `json:"query"`
	Visible int          `json:"visible"`
}

type moveResponse struct {
	Direction glyphfield.Direction `json:"direction"`
	Origin    config.Vec3          `json:"origin"`
}

type axesResponse struct {
	Visible bool `json:"visible"`
}

type stateResponse struct {
	State       string        `json:"state"`
	Glyphs      int           `json:"glyphs"`
	Visible     int           `json:"visible"`
	Selected    int           `json:"selected"`
	AxesVisible bool          `json:"axes_visible"`
	Frames      uint64        `json:"frames"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Camera      camera.State  `json:"camera"`
	Filter      *query.Query  `json:"filter"`
	Config      config.Config `json:"config"`
}

// RegisterRoutes adds the API routes to e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/filter", s.postFilter)
	api.POST("/select", s.postSelect)
	api.POST("/select/ids", s.postSelectIDs)
	api.GET("/selection", s.getSelection)
	api.POST("/move/:direction", s.postMove)
	api.POST("/axes/toggle", s.postToggleAxes)
	api.GET("/state", s.getState)
	api.GET("/events", s.streamEvents)
}

// --- HANDLERS ---

// apply posts ev and returns the engine state after it was handled.
func (s *Server) apply(ctx context.Context, ev glyphfield.Event) (glyphfield.Snapshot, error) {
	if ev != nil {
		if err := s.engine.Post(ctx, ev); err != nil {
			return glyphfield.Snapshot{}, engineError(err)
		}
	}
	snap, err := s.engine.Snapshot(ctx)
	if err != nil {
		return glyphfield.Snapshot{}, engineError(err)
	}
	return snap, nil
}

func engineError(err error) error {
	switch {
	case errors.Is(err, glyphfield.ErrClosed):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "engine terminated").SetInternal(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request canceled").SetInternal(err)
	}
	return err
}

// postFilter parses the body as a filter document. A rejected document
// is answered with the FilterRejected diagnostic and leaves the active
// filter in place.
func (s *Server) postFilter(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body").SetInternal(err)
	}
	q, err := query.Parse(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, glyphfield.Rejection(err))
	}
	snap, err := s.apply(c.Request().Context(), glyphfield.UpdateModelFilter{Query: q})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, filterResponse{Query: snap.Filter, Visible: snap.Visible})
}

func (s *Server) postSelect(c echo.Context) error {
	var req selectRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	snap, err := s.apply(c.Request().Context(), glyphfield.SelectGlyph{X: req.X, Y: req.Y, Multi: req.Multi})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap.Selection)
}

func (s *Server) postSelectIDs(c echo.Context) error {
	var req selectIDsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	snap, err := s.apply(c.Request().Context(), glyphfield.SelectGlyphs{IDs: req.IDs})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap.Selection)
}

func (s *Server) getSelection(c echo.Context) error {
	snap, err := s.apply(c.Request().Context(), nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap.Selection)
}

func (s *Server) postMove(c echo.Context) error {
	d, ok := glyphfield.ParseDirection(c.Param("direction"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown direction "+c.Param("direction"))
	}
	snap, err := s.apply(c.Request().Context(), glyphfield.ModelMove{Direction: d})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, moveResponse{Direction: d, Origin: snap.Config.ModelOrigin})
}

func (s *Server) postToggleAxes(c echo.Context) error {
	snap, err := s.apply(c.Request().Context(), glyphfield.ToggleAxisLines{})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, axesResponse{Visible: snap.AxesVisible})
}

func (s *Server) getState(c echo.Context) error {
	snap, err := s.apply(c.Request().Context(), nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stateResponse{
		State:       snap.State.String(),
		Glyphs:      snap.Glyphs,
		Visible:     snap.Visible,
		Selected:    len(snap.Selection),
		AxesVisible: snap.AxesVisible,
		Frames:      snap.Frames,
		Width:       snap.Width,
		Height:      snap.Height,
		Camera:      snap.Camera,
		Filter:      snap.Filter,
		Config:      snap.Config,
	})
}
