package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/admin"
	"storefront/internal/backend"
	"storefront/internal/importer"
	"storefront/internal/service/deploy"
)

type adminHandler struct {
	dashboard  *admin.Dashboard
	catalog    Catalog
	categories Categories
	products   importer.ProductWriter
	deployer   Deployer
	logger     *log.Logger
	now        func() time.Time
}

func (h *adminHandler) inventory(c *gin.Context) {
	if !h.requireDashboard(c) {
		return
	}
	state := h.dashboard.Inventory.Snapshot()
	items, updated := state.Value, state.Updated
	if !state.Loaded {
		var err error
		items, err = h.dashboard.Inventory.Refresh(c.Request.Context())
		if err != nil {
			h.fail(c, http.StatusInternalServerError, "Failed to fetch inventory", err)
			return
		}
		updated = h.now()
	}

	filtered := admin.Filter(items, admin.InventoryFilter{
		Search:  c.Query("search"),
		Status:  c.Query("status"),
		Channel: c.Query("channel"),
	})
	resp := gin.H{
		"success":     true,
		"items":       admin.Rows(filtered, h.now()),
		"summary":     admin.Summarize(items),
		"channels":    admin.Channels(items),
		"lastRefresh": updated,
	}
	if state.Err != nil {
		resp["lastError"] = state.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *adminHandler) refreshInventory(c *gin.Context) {
	if !h.requireDashboard(c) {
		return
	}
	items, err := h.dashboard.Inventory.Refresh(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to fetch inventory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"count":       len(items),
		"lastRefresh": h.now(),
	})
}

func (h *adminHandler) jobs(c *gin.Context) {
	if !h.requireDashboard(c) {
		return
	}
	if _, ok := h.dashboard.Jobs.Stats(); !ok {
		if _, err := h.dashboard.JobStats.Refresh(c.Request.Context()); err != nil {
			h.fail(c, http.StatusInternalServerError, "Failed to fetch job statistics", err)
			return
		}
	}
	stats, _ := h.dashboard.Jobs.Stats()
	state := h.dashboard.JobStats.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"stats":          stats,
		"redisAvailable": state.Value.RedisAvailable,
		"history":        h.dashboard.Jobs.History(),
		"lastRefresh":    state.Updated,
	})
}

func (h *adminHandler) runJob(c *gin.Context) {
	if !h.requireDashboard(c) {
		return
	}
	ctx := c.Request.Context()
	queue := c.Param("queue")

	err := h.dashboard.Jobs.Run(ctx, queue)
	if errors.Is(err, admin.ErrNoJobStats) {
		if _, ferr := h.dashboard.JobStats.Refresh(ctx); ferr != nil {
			h.fail(c, http.StatusInternalServerError, "Failed to fetch job statistics", ferr)
			return
		}
		err = h.dashboard.Jobs.Run(ctx, queue)
	}
	switch {
	case errors.Is(err, admin.ErrUnknownQueue):
		h.fail(c, http.StatusNotFound, "Unknown job queue", err)
		return
	case errors.Is(err, admin.ErrJobRunning):
		h.fail(c, http.StatusConflict, "Job already running", err)
		return
	case err != nil:
		h.fail(c, http.StatusServiceUnavailable, "Job statistics unavailable", err)
		return
	}

	history := h.dashboard.Jobs.History()
	stats, _ := h.dashboard.Jobs.Stats()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"execution": history[len(history)-1],
		"stats":     stats,
	})
}

func (h *adminHandler) catalogList(c *gin.Context) {
	if h.catalog == nil {
		h.unavailable(c)
		return
	}
	resp, err := h.catalog.List(c.Request.Context(), backend.ParseProductFilters(c.Request.URL.Query()))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to list products", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *adminHandler) categoryList(c *gin.Context) {
	if h.categories == nil {
		h.unavailable(c)
		return
	}
	list, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": list})
}

func (h *adminHandler) importCSV(c *gin.Context) {
	if h.products == nil {
		h.unavailable(c)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, http.StatusBadRequest, "CSV file is required", err)
		return
	}
	opts := importer.Options{CategoryID: c.PostForm("categoryId")}
	if raw := c.PostForm("limit"); raw != "" {
		opts.Limit, err = strconv.Atoi(raw)
		if err != nil {
			h.fail(c, http.StatusBadRequest, "Invalid limit", err)
			return
		}
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, http.StatusBadRequest, "CSV file is unreadable", err)
		return
	}
	defer f.Close()

	imp, err := importer.NewCSVImporter(f, h.products, opts)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	res, err := imp.Run(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusUnprocessableEntity, "Import failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imported": res.Imported,
		"skipped":  res.Skipped,
		"products": res.Products,
	})
}

func (h *adminHandler) deploy(c *gin.Context) {
	if h.deployer == nil {
		h.unavailable(c)
		return
	}
	var req deploy.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid deploy request", err)
		return
	}
	res, err := h.deployer.Deploy(c.Request.Context(), req)
	switch {
	case errors.Is(err, deploy.ErrNoProducts):
		h.fail(c, http.StatusBadRequest, "Invalid deploy request", err)
		return
	case err != nil:
		h.fail(c, http.StatusBadGateway, "Deployment failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *adminHandler) requireDashboard(c *gin.Context) bool {
	if h.dashboard == nil {
		h.unavailable(c)
		return false
	}
	return true
}

func (h *adminHandler) unavailable(c *gin.Context) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Not configured"})
}

func (h *adminHandler) fail(c *gin.Context, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Printf("%s: %v", msg, err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   msg,
		"details": err.Error(),
	})
}
