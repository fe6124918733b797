package server

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/emomap/internal/aggregate"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/mapview"
	"github.com/julianstephens/emomap/internal/models"
)

// view builds a fresh controller per request; controllers are not shared
// between goroutines. A read failure yields an empty view plus a warning.
func (s *Server) view(c *gin.Context) (*mapview.Controller, string, bool) {
	mode, err := mapview.ParseMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", false
	}

	mc := mapview.New(s.store)
	_ = mc.SetMode(mode)

	var warning string
	if err := mc.Refresh(); err != nil {
		_ = c.Error(err)
		warning = "survey data could not be read"
	}
	return mc, warning, true
}

func withWarning(body gin.H, warning string) gin.H {
	if warning != "" {
		body["warning"] = warning
	}
	return body
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": constants.AppName,
		"version": constants.Version,
	})
}

func (s *Server) index(c *gin.Context) {
	mc, _, ok := s.view(c)
	if !ok {
		return
	}

	page := mc.Page()
	page.APIBase = "."

	var buf bytes.Buffer
	if err := mapview.RenderHTML(&buf, page); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "failed to render map")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) markers(c *gin.Context) {
	mc, warning, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, withWarning(gin.H{
		"mode":     mc.Mode(),
		"markers":  mc.Markers(),
		"stats":    mc.Stats(),
		"legend":   mc.Legend(),
		"viewport": mc.Viewport(),
	}, warning))
}

func (s *Server) aggregates(c *gin.Context) {
	mc, warning, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, withWarning(gin.H{
		"aggregates": mc.Aggregates(),
		"summary":    aggregate.Summarize(mc.Surveys()),
	}, warning))
}

func (s *Server) submissions(c *gin.Context) {
	mc, warning, ok := s.view(c)
	if !ok {
		return
	}
	subs := mc.Surveys()
	if subs == nil {
		subs = []models.SurveyData{}
	}
	c.JSON(http.StatusOK, withWarning(gin.H{
		"submissions": subs,
		"count":       len(subs),
	}, warning))
}

func (s *Server) legend(c *gin.Context) {
	mode, err := mapview.ParseMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mapview.LegendFor(mode))
}

func (s *Server) geojson(c *gin.Context) {
	mc, _, ok := s.view(c)
	if !ok {
		return
	}
	data, err := mapview.GeoJSON(mc.Markers())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode markers"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}
