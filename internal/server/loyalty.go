package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/muralikrishna41140/cakeraft-sub001/pkg/money"
)

func (s *Server) LoyaltyStatus(c *gin.Context) {
	var prospective int64
	if raw := strings.TrimSpace(c.Query("subtotal")); raw != "" {
		rupees, err := strconv.ParseFloat(raw, 64)
		if err != nil || rupees < 0 {
			AbortWithError(c, newValidationError("subtotal", "invalid_subtotal", "subtotal must be a non-negative amount"))
			return
		}
		prospective = money.ToMinor(rupees)
	}

	resp, err := s.loyaltySvc.CheckStatus(c.Request.Context(), strings.TrimSpace(c.Query("phone")), prospective)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) LoyaltyHistory(c *gin.Context) {
	entries, err := s.loyaltySvc.History(c.Request.Context(), strings.TrimSpace(c.Query("phone")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
