package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type exportAgedRequest struct {
	OlderThanDays *int `json:"older_than_days"`
}

type billArchiveResponse struct {
	BillNumber    string  `json:"bill_number"`
	ArchiveStatus string  `json:"archive_status"`
	ArchiveURL    *string `json:"archive_url,omitempty"`
}

// ExportAged triggers the aged-bill spreadsheet export. The cutoff
// defaults to the configured retention and can be overridden per call.
func (s *Server) ExportAged(c *gin.Context) {
	var req exportAgedRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	days := s.cfg.ExportMaxAgeDays
	if req.OlderThanDays != nil {
		if *req.OlderThanDays <= 0 {
			AbortWithError(c, newValidationError("older_than_days", "invalid_older_than_days", "older_than_days must be positive"))
			return
		}
		days = *req.OlderThanDays
	}

	olderThan := time.Now().UTC().AddDate(0, 0, -days)
	result, err := s.archiveSvc.ExportAged(c.Request.Context(), olderThan)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) BillArchiveStatus(c *gin.Context) {
	bill, err := s.lookupBill(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": billArchiveResponse{
		BillNumber:    bill.BillNumber,
		ArchiveStatus: bill.ArchiveStatus,
		ArchiveURL:    bill.ArchiveURL,
	}})
}
