package v1handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCreditScore returns the caller's latest score and recent history.
func (h *Handler) GetCreditScore(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.deps.Ledger.Summary(ctx, GetUserIDFromContext(ctx))
	if err != nil {
		h.abort(c, err)

		return
	}

	c.JSON(http.StatusOK, summary)
}
