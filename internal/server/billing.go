package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/muralikrishna41140/cakeraft-sub001/internal/billing/domain"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/config"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/providers/pdf"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db/pagination"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/money"
)

func (s *Server) Checkout(c *gin.Context) {
	var req billingdomain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.billingSvc.Checkout(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("bill_number", resp.BillNumber)
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListBills(c *gin.Context) {
	var query struct {
		Phone string `form:"phone"`
		From  string `form:"from"`
		To    string `form:"to"`
		Page  pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.billingSvc.ListBills(c.Request.Context(), billingdomain.ListBillsRequest{
		Phone: strings.TrimSpace(query.Phone),
		From:  strings.TrimSpace(query.From),
		To:    strings.TrimSpace(query.To),
		Page:  query.Page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBillByID(c *gin.Context) {
	resp, err := s.lookupBill(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// BillReceiptPDF renders the receipt on demand, independent of whether
// the archive copy exists yet.
func (s *Server) BillReceiptPDF(c *gin.Context) {
	bill, err := s.lookupBill(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	receipt, err := s.pdfProvider.GenerateReceipt(c.Request.Context(), receiptFromBill(s.cfg, bill))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payload, err := io.ReadAll(receipt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Set("bill_number", bill.BillNumber)
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", bill.BillNumber+".pdf"))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// lookupBill accepts either the numeric bill id or the printed bill
// number so receipts can be pulled straight from a paper copy.
func (s *Server) lookupBill(c *gin.Context) (*billingdomain.BillResponse, error) {
	id := strings.TrimSpace(c.Param("id"))
	if strings.HasPrefix(id, "BILL-") {
		return s.billingSvc.GetBillByNumber(c.Request.Context(), id)
	}
	return s.billingSvc.GetBill(c.Request.Context(), id)
}

func receiptFromBill(cfg config.Config, bill *billingdomain.BillResponse) pdf.ReceiptData {
	items := make([]pdf.ReceiptItem, 0, len(bill.Items))
	for _, item := range bill.Items {
		items = append(items, pdf.ReceiptItem{
			Description: item.DisplayName,
			Qty:         item.Quantity,
			UnitPrice:   money.FormatINR(money.ToMinor(item.UnitPrice)),
			Amount:      money.FormatINR(money.ToMinor(item.Total)),
		})
	}

	data := pdf.ReceiptData{
		StoreName:     cfg.Store.Name,
		StoreAddress:  cfg.Store.Address,
		StorePhone:    cfg.Store.Phone,
		BillNumber:    bill.BillNumber,
		BillDate:      bill.CreatedAt.UTC().Format("02 Jan 2006 15:04"),
		CustomerName:  bill.CustomerName,
		CustomerPhone: bill.CustomerPhone,
		Items:         items,
		Subtotal:      money.FormatINR(money.ToMinor(bill.Subtotal)),
		Total:         money.FormatINR(money.ToMinor(bill.Total)),
	}
	if bill.TotalDiscount > 0 {
		data.Discount = money.FormatINR(money.ToMinor(bill.TotalDiscount))
	}
	if bill.Loyalty != nil && bill.Loyalty.Applied {
		data.LoyaltyMessage = bill.Loyalty.Message
	}
	return data
}
