package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hospitality-backoffice/services"
	"hospitality-backoffice/utils"
)

type bulkPriceRequest struct {
	IDs   []uint           `json:"ids" binding:"required"`
	Price *decimal.Decimal `json:"price"`
}

type AvailabilityController struct {
	Ledger *services.AvailabilityService
}

func NewAvailabilityController(ledger *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{Ledger: ledger}
}

func (ac *AvailabilityController) BulkUpdate(c *gin.Context) {
	var in services.BulkAvailabilityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	n, err := ac.Ledger.BulkUpdate(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"updated": n})
}

// BulkPrice sets the price override of the selected rows. A null price clears it.
func (ac *AvailabilityController) BulkPrice(c *gin.Context) {
	var req bulkPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	n, err := ac.Ledger.BulkSetPrice(c.Request.Context(), req.IDs, req.Price)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"updated": n})
}

func (ac *AvailabilityController) ToggleBlock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	row, err := ac.Ledger.ToggleBlock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, row)
}
