package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
)

func (s *Server) RevenueSummary(c *gin.Context) {
	resp, err := s.billingSvc.RevenueSummary(c.Request.Context(), billingdomain.RevenueSummaryRequest{
		From: strings.TrimSpace(c.Query("from")),
		To:   strings.TrimSpace(c.Query("to")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
