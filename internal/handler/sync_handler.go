package handler

import (
	"net/http"

	"stocksync/internal/middleware"
	"stocksync/internal/service"
	"stocksync/pkg/pagination"
	"stocksync/pkg/response"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	syncService service.SyncService
	jwtSecret   []byte
}

func NewSyncHandler(syncService service.SyncService, jwtSecret []byte) *SyncHandler {
	return &SyncHandler{syncService: syncService, jwtSecret: jwtSecret}
}

func (h *SyncHandler) RegisterRoutes(router *gin.RouterGroup) {
	syncGroup := router.Group("/api/sync")
	{
		syncGroup.POST("/run", middleware.RequireOperator(h.jwtSecret), h.TriggerRun)
		syncGroup.POST("/reimport", middleware.RequireOperator(h.jwtSecret), h.Reimport)
		syncGroup.GET("/runs", middleware.RequireOperator(h.jwtSecret), h.ListRuns)
		syncGroup.GET("/averages", middleware.RequireOperator(h.jwtSecret), h.GetAverages)
	}
}

// @Summary      Trigger a reconciliation run
// @Description  Execute one full order-to-inventory reconciliation pass
// @Tags         Sync
// @Produce      json
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "Unauthorized"
// @Failure      500 {object} response.Response "Run failed"
// @Security     BearerAuth
// @Router       /api/sync/run [post]
func (h *SyncHandler) TriggerRun(c *gin.Context) {
	run, err := h.syncService.Run(c.Request.Context(), service.TriggerAPI)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, run))
}

// @Summary      Re-run the one-time inventory import
// @Description  Clears the import marker and reseeds the stock sheet from the master catalog
// @Tags         Sync
// @Produce      json
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "Unauthorized"
// @Failure      500 {object} response.Response "Import failed"
// @Security     BearerAuth
// @Router       /api/sync/reimport [post]
func (h *SyncHandler) Reimport(c *gin.Context) {
	if err := h.syncService.Reimport(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "inventory re-imported"}))
}

// @Summary      List reconciliation runs
// @Description  Run history, newest first
// @Tags         Sync
// @Produce      json
// @Param        page  query int false "Page"
// @Param        limit query int false "Page size"
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "Unauthorized"
// @Failure      500 {object} response.Response "Internal server error"
// @Security     BearerAuth
// @Router       /api/sync/runs [get]
func (h *SyncHandler) ListRuns(c *gin.Context) {
	params := pagination.Parse(c)
	runs, total, err := h.syncService.ListRuns(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Paged(http.StatusOK, runs, params.Page, params.Limit, total))
}

// @Summary      Current rolling averages
// @Description  Trailing 7-day per-day sales average per product key
// @Tags         Sync
// @Produce      json
// @Success      200 {object} response.Response
// @Failure      401 {object} response.Response "Unauthorized"
// @Failure      500 {object} response.Response "Internal server error"
// @Security     BearerAuth
// @Router       /api/sync/averages [get]
func (h *SyncHandler) GetAverages(c *gin.Context) {
	averages, err := h.syncService.Averages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, averages))
}
