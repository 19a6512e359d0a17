package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hospitality-backoffice/services"
	"hospitality-backoffice/utils"
)

type generateInvoicesRequest struct {
	Month int `json:"month" binding:"required"`
	Year  int `json:"year" binding:"required"`
}

type InvoiceController struct {
	InvoiceSvc *services.InvoiceService
}

func NewInvoiceController(svc *services.InvoiceService) *InvoiceController {
	return &InvoiceController{InvoiceSvc: svc}
}

func (ic *InvoiceController) CreateInvoice(c *gin.Context) {
	var in services.CreateInvoiceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	inv, err := ic.InvoiceSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, inv)
}

func (ic *InvoiceController) GenerateInvoices(c *gin.Context) {
	var req generateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	list, err := ic.InvoiceSvc.GenerateForPeriod(c.Request.Context(), req.Month, req.Year)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (ic *InvoiceController) GetInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inv, err := ic.InvoiceSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"invoice":    inv,
		"is_overdue": ic.InvoiceSvc.IsOverdue(inv),
		"total":      services.FormatMoney(inv.TotalRevenue, inv.Currency),
		"commission": services.FormatMoney(inv.CommissionAmount, inv.Currency),
	})
}

func (ic *InvoiceController) CalculateInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inv, err := ic.InvoiceSvc.CalculateTotals(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, inv)
}

func (ic *InvoiceController) SendInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inv, err := ic.InvoiceSvc.MarkAsSent(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, inv)
}

func (ic *InvoiceController) PayInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	inv, err := ic.InvoiceSvc.MarkAsPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, inv)
}
