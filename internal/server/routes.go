package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"canteen-planner/internal/app"
	"canteen-planner/internal/catalog"
	"canteen-planner/internal/metrics"
	"canteen-planner/internal/planner"
	"canteen-planner/internal/session"
	"canteen-planner/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type dishRequest struct {
	DishID string `json:"dish_id" binding:"required"`
}

type rateRequest struct {
	DishID string `json:"dish_id" binding:"required"`
	Stars  int    `json:"stars" binding:"required"`
}

type cellRequest struct {
	Day  string `json:"day" binding:"required"`
	Meal string `json:"meal" binding:"required"`
}

type dropRequest struct {
	cellRequest
	Payload string `json:"payload" binding:"required"`
}

type saveRequest struct {
	Owner string `json:"owner"`
}

func (s *Server) registerRoutes() {
	r := s.router

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if s.opts.Webhook != nil {
		r.POST(s.opts.WebhookPath, gin.WrapH(s.opts.Webhook))
	}

	api := r.Group("/api")
	api.GET("/catalog", s.listCatalog)
	api.GET("/search", s.search)
	api.GET("/regions/:region", s.regional)
	api.GET("/activity", s.activity)

	api.POST("/sessions", s.createSession)
	sess := api.Group("/sessions/:id")
	{
		sess.GET("", s.getSession)
		sess.DELETE("", s.deleteSession)
		sess.PUT("/filter", s.setFilter)
		sess.GET("/catalog", s.sessionCatalog)
		sess.POST("/select", s.selectDish)
		sess.POST("/ratings", s.rate)
		sess.POST("/drag", s.startDrag)
		sess.POST("/drag/over", s.dragOver)
		sess.POST("/drag/cancel", s.cancelDrag)
		sess.POST("/drop", s.drop)
		sess.DELETE("/plan/:day/:meal/:index", s.removeEntry)
		sess.POST("/save", s.savePlan)
		sess.GET("/export", s.exportSession)
	}

	api.GET("/plans/:planID", s.getPlan)
	api.POST("/plans/:planID/export", s.exportPlan)
	api.GET("/exports/*key", s.getExport)
}

func (s *Server) health(c *gin.Context) {
	status, code := "ok", http.StatusOK
	if s.opts.DB != nil {
		if err := s.opts.DB.PingContext(c.Request.Context()); err != nil {
			log.Error().Err(err).Msg("database health check failed")
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":   status,
		"uptime":   time.Since(s.appeared).Round(time.Second).String(),
		"sessions": s.app.Sessions().Len(),
		"dishes":   s.app.Catalog().Len(),
		"system":   metrics.GetSysHealth(s.opts.DataPath),
	})
}

func (s *Server) listCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Catalog().Filter(filterFromQuery(c)))
}

func (s *Server) search(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Catalog().Search(c.Query("q")))
}

func (s *Server) regional(c *gin.Context) {
	region := c.Param("region")
	if !catalog.IsRegion(region) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown region", "regions": catalog.Regions})
		return
	}
	c.JSON(http.StatusOK, s.app.Catalog().Regional(region, c.Query("q"), queryFlag(c, "veg")))
}

func (s *Server) activity(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}
	stats, err := s.app.DailyActivity(c.Request.Context(), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) createSession(c *gin.Context) {
	id := s.app.Sessions().Create()
	snap, err := s.app.Sessions().Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (s *Server) getSession(c *gin.Context) {
	s.respondSnapshot(c, http.StatusOK)
}

func (s *Server) deleteSession(c *gin.Context) {
	s.app.Sessions().Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) setFilter(c *gin.Context) {
	var f catalog.FilterState
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	visible, err := s.app.SetFilter(c.Param("id"), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, visible)
}

func (s *Server) sessionCatalog(c *gin.Context) {
	visible, err := s.app.VisibleDishes(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, visible)
}

func (s *Server) selectDish(c *gin.Context) {
	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.app.Select(c.Param("id"), req.DishID); err != nil {
		writeError(c, err)
		return
	}
	s.respondSnapshot(c, http.StatusOK)
}

func (s *Server) rate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.app.Rate(c.Param("id"), req.DishID, req.Stars); err != nil {
		writeError(c, err)
		return
	}
	s.respondSnapshot(c, http.StatusOK)
}

func (s *Server) startDrag(c *gin.Context) {
	var req dishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload, err := s.app.StartDrag(c.Param("id"), req.DishID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payload": string(payload)})
}

func (s *Server) dragOver(c *gin.Context) {
	var req cellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, slot := dropTarget(req)
	accept, err := s.app.DragOver(c.Param("id"), day, slot)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accept": accept})
}

func (s *Server) cancelDrag(c *gin.Context) {
	if err := s.app.CancelDrag(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	s.respondSnapshot(c, http.StatusOK)
}

// drop never rejects a bad cell up front: the placement protocol turns it
// into a cancelled drop.
func (s *Server) drop(c *gin.Context) {
	var req dropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, slot := dropTarget(req.cellRequest)
	res, err := s.app.Drop(c.Request.Context(), c.Param("id"), day, slot, []byte(req.Payload))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome":  res.Outcome.String(),
		"reason":   res.Reason,
		"snapshot": res.Snapshot,
	})
}

func (s *Server) removeEntry(c *gin.Context) {
	day, ok := planner.ParseDay(c.Param("day"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown day"})
		return
	}
	slot, ok := planner.ParseMeal(c.Param("meal"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown meal"})
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}

	removed, snap, err := s.app.RemoveEntry(c.Request.Context(), c.Param("id"), day, slot, index)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "snapshot": snap})
}

func (s *Server) savePlan(c *gin.Context) {
	var req saveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	planID, err := s.app.SavePlan(c.Request.Context(), c.Param("id"), req.Owner)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan_id": planID})
}

func (s *Server) exportSession(c *gin.Context) {
	format, err := storage.ParseFormat(c.DefaultQuery("format", string(storage.FormatMarkdown)))
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := s.app.RenderSession(c.Param("id"), format)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), data)
}

func (s *Server) getPlan(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	sp, err := s.app.SavedPlan(c.Request.Context(), planID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

func (s *Server) exportPlan(c *gin.Context) {
	planID, ok := planIDParam(c)
	if !ok {
		return
	}
	format, err := storage.ParseFormat(c.DefaultQuery("format", string(storage.FormatMarkdown)))
	if err != nil {
		writeError(c, err)
		return
	}
	key, err := s.app.ExportSavedPlan(c.Request.Context(), planID, format)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func (s *Server) getExport(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	data, err := s.app.LoadExport(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}
	contentType := storage.FormatMarkdown.ContentType()
	if strings.HasSuffix(key, ".html") {
		contentType = storage.FormatHTML.ContentType()
	}
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) respondSnapshot(c *gin.Context, status int) {
	snap, err := s.app.Sessions().Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, snap)
}

func planIDParam(c *gin.Context) (int64, bool) {
	planID, err := strconv.ParseInt(c.Param("planID"), 10, 64)
	if err != nil || planID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plan id must be a positive integer"})
		return 0, false
	}
	return planID, true
}

// dropTarget resolves the cell named by a request. Unparseable names map to
// coordinates outside the grid.
func dropTarget(req cellRequest) (planner.DayKey, int) {
	day, ok := planner.ParseDay(req.Day)
	if !ok {
		day = planner.DayKey(req.Day)
	}
	slot, ok := planner.ParseMeal(req.Meal)
	if !ok {
		slot = -1
	}
	return day, slot
}

func filterFromQuery(c *gin.Context) catalog.FilterState {
	return catalog.FilterState{
		Veg:        queryFlag(c, "veg"),
		Vegan:      queryFlag(c, "vegan"),
		GlutenFree: queryFlag(c, "gluten_free"),
	}
}

func queryFlag(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, catalog.ErrDishNotFound),
		errors.Is(err, planner.ErrPlanNotFound),
		errors.Is(err, storage.ErrExportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidRating),
		errors.Is(err, storage.ErrInvalidFormat):
		status = http.StatusBadRequest
	case errors.Is(err, app.ErrExportsDisabled):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
