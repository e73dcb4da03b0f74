package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/service/checkout"
)

type cartHandler struct {
	carts  CartService
	logger *log.Logger
}

func (h *cartHandler) get(c *gin.Context) {
	cart, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *cartHandler) summary(c *gin.Context) {
	cart, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": checkout.Summarize(*cart)})
}

func (h *cartHandler) load(c *gin.Context) (*domain.Cart, bool) {
	cart, err := h.carts.Get(c.Request.Context(), c.Query("id"))
	if err != nil {
		h.writeError(c, "get", err)
		return nil, false
	}
	return cart, true
}

func (h *cartHandler) save(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.writeError(c, "read body", err)
		return
	}
	cart, err := h.carts.Decode(body)
	if err != nil {
		h.writeError(c, "decode", err)
		return
	}
	saved, err := h.carts.Save(c.Request.Context(), cart)
	if err != nil {
		h.writeError(c, "save", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cart saved successfully",
		"cart":    saved,
	})
}

func (h *cartHandler) remove(c *gin.Context) {
	if err := h.carts.Delete(c.Request.Context(), c.Query("id")); err != nil {
		h.writeError(c, "delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart removed successfully"})
}

func (h *cartHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrCartIDRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart ID is required"})
	case errors.Is(err, domain.ErrInvalidCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart structure", "details": err.Error()})
	case errors.Is(err, domain.ErrInvalidCartID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cart ID"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart not found"})
	default:
		h.logger.Printf("cart %s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
