// controllers/booking_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hospitality-backoffice/services"
	"hospitality-backoffice/utils"
)

type CreateBookingRequest struct {
	UserID          uint             `json:"user_id" binding:"required"`
	RoomID          uint             `json:"room_id" binding:"required"`
	CheckIn         string           `json:"check_in" binding:"required"`
	CheckOut        string           `json:"check_out" binding:"required"`
	GuestsAdults    *int             `json:"guests_adults"`
	GuestsChildren  int              `json:"guests_children"`
	CurrencyID      *uint            `json:"currency_id"`
	CommissionRate  *decimal.Decimal `json:"commission_rate"`
	GuestName       string           `json:"guest_name"`
	GuestEmail      string           `json:"guest_email"`
	GuestPhone      string           `json:"guest_phone"`
	SpecialRequests string           `json:"special_requests"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type BookingController struct {
	BookingSvc *services.BookingService
}

func NewBookingController(svc *services.BookingService) *BookingController {
	return &BookingController{BookingSvc: svc}
}

func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	checkIn, err := utils.ParseDate(req.CheckIn)
	if err != nil {
		badRequest(c, "check_in: "+err.Error())
		return
	}
	checkOut, err := utils.ParseDate(req.CheckOut)
	if err != nil {
		badRequest(c, "check_out: "+err.Error())
		return
	}
	adults := 1
	if req.GuestsAdults != nil {
		adults = *req.GuestsAdults
	}

	booking, err := bc.BookingSvc.Create(c.Request.Context(), services.CreateBookingInput{
		UserID:          req.UserID,
		RoomID:          req.RoomID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		GuestsAdults:    adults,
		GuestsChildren:  req.GuestsChildren,
		CurrencyID:      req.CurrencyID,
		CommissionRate:  req.CommissionRate,
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		SpecialRequests: req.SpecialRequests,
		ChangedBy:       actorID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, booking)
}

func (bc *BookingController) GetBookings(c *gin.Context) {
	f := services.BookingFilter{Status: c.Query("status")}
	if v := c.Query("room_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badRequest(c, "invalid room_id")
			return
		}
		f.RoomID = uint(n)
	}
	if v := c.Query("host_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badRequest(c, "invalid host_id")
			return
		}
		f.HostID = uint(n)
	}
	if v := c.Query("from"); v != "" {
		d, err := utils.ParseDate(v)
		if err != nil {
			badRequest(c, "from: "+err.Error())
			return
		}
		f.From = d
	}
	if v := c.Query("to"); v != "" {
		d, err := utils.ParseDate(v)
		if err != nil {
			badRequest(c, "to: "+err.Error())
			return
		}
		f.To = d
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, total, err := bc.BookingSvc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"items": list, "total": total})
}

func (bc *BookingController) GetBookingDetails(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := bc.BookingSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"booking":          booking,
		"can_be_cancelled": bc.BookingSvc.CanBeCancelled(booking),
	})
}

func (bc *BookingController) GetBookingHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rows, err := bc.BookingSvc.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rows)
}

func (bc *BookingController) ConfirmBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := bc.BookingSvc.Confirm(c.Request.Context(), id, actorID(c), "")
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (bc *BookingController) CancelBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	booking, err := bc.BookingSvc.Cancel(c.Request.Context(), id, req.Reason, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (bc *BookingController) CheckInBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := bc.BookingSvc.CheckIn(c.Request.Context(), id, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (bc *BookingController) CheckoutBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := bc.BookingSvc.CheckOut(c.Request.Context(), id, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}
