package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hospitality-backoffice/services"
	"hospitality-backoffice/utils"
)

type convertRequest struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from" binding:"required"`
	To     string          `json:"to" binding:"required"`
}

type updateRateRequest struct {
	Rate decimal.Decimal `json:"rate"`
}

type idsRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

type CurrencyController struct {
	CurrencySvc *services.CurrencyService
}

func NewCurrencyController(svc *services.CurrencyService) *CurrencyController {
	return &CurrencyController{CurrencySvc: svc}
}

func (cc *CurrencyController) ListCurrencies(c *gin.Context) {
	list, err := cc.CurrencySvc.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (cc *CurrencyController) Convert(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	amount, to, err := cc.CurrencySvc.ConvertCodes(c.Request.Context(), req.Amount, req.From, req.To)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"amount":    amount,
		"currency":  to.Code,
		"formatted": cc.CurrencySvc.Format(amount, to),
	})
}

func (cc *CurrencyController) UpdateRate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cur, err := cc.CurrencySvc.UpdateRate(c.Request.Context(), id, req.Rate, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, cur)
}

func (cc *CurrencyController) RateHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, err := cc.CurrencySvc.RateHistory(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rows)
}

func (cc *CurrencyController) Activate(c *gin.Context)   { cc.setActive(c, true) }
func (cc *CurrencyController) Deactivate(c *gin.Context) { cc.setActive(c, false) }

func (cc *CurrencyController) setActive(c *gin.Context, active bool) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	n, err := cc.CurrencySvc.SetActive(c.Request.Context(), req.IDs, active)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"updated": n})
}

func (cc *CurrencyController) DeleteCurrency(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := cc.CurrencySvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}
