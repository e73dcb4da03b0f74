package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/backend"
)

// proxyHandler passes catalog reads through to the backend.
type proxyHandler struct {
	backend Backend
	logger  *log.Logger
}

func (h *proxyHandler) products(c *gin.Context) {
	filters := backend.ParseProductFilters(c.Request.URL.Query())
	resp, err := h.backend.Products(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, "Failed to fetch products", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *proxyHandler) inventory(c *gin.Context) {
	resp, err := h.backend.Inventory(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to fetch inventory", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *proxyHandler) jobStats(c *gin.Context) {
	resp, err := h.backend.JobStats(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to fetch job statistics", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *proxyHandler) fail(c *gin.Context, msg string, err error) {
	h.logger.Printf("%s: %v", msg, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   msg,
		"details": err.Error(),
	})
}
