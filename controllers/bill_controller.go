package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-service/services"
	"room-service/utils"
)

type BillController struct {
	BillingSvc *services.BillingService
}

func NewBillController(svc *services.BillingService) *BillController {
	return &BillController{BillingSvc: svc}
}

type paidPayload struct {
	Paid *bool `json:"paid" binding:"required"`
}

// ListBills (GET /api/staff/bills)
func (ctrl *BillController) ListBills(c *gin.Context) {
	if mobile := c.Query("mobile"); mobile != "" {
		bills, err := ctrl.BillingSvc.BillsByMobile(c.Request.Context(), mobile)
		if err != nil {
			respondError(c, err)
			return
		}
		utils.JSONSuccess(c, http.StatusOK, bills)
		return
	}
	bills, err := ctrl.BillingSvc.ListBills(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bills)
}

// GetBill (GET /api/staff/bills/:id)
func (ctrl *BillController) GetBill(c *gin.Context) {
	bill, err := ctrl.BillingSvc.GetBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bill)
}

// SetPaid (PATCH /api/staff/bills/:id/paid)
func (ctrl *BillController) SetPaid(c *gin.Context) {
	var payload paidPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONFieldError(c, http.StatusBadRequest, "paid", "paid must be true or false")
		return
	}
	bill, err := ctrl.BillingSvc.SetPaid(c.Request.Context(), c.Param("id"), *payload.Paid)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bill)
}

// Recalculate (POST /api/staff/bills/recalculate)
func (ctrl *BillController) Recalculate(c *gin.Context) {
	bills, err := ctrl.BillingSvc.RecalculateBills(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bills)
}

// CustomerSummary (GET /api/customers/:mobile/summary)
func (ctrl *BillController) CustomerSummary(c *gin.Context) {
	summary, err := ctrl.BillingSvc.ComputeSummary(c.Request.Context(), c.Param("mobile"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, summary)
}
