package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hospitality-backoffice/services"
	"hospitality-backoffice/utils"
)

type RoomController struct {
	RoomSvc    *services.RoomService
	Ledger     *services.AvailabilityService
	PricingSvc *services.PricingService
}

func NewRoomController(rooms *services.RoomService, ledger *services.AvailabilityService, pricing *services.PricingService) *RoomController {
	return &RoomController{RoomSvc: rooms, Ledger: ledger, PricingSvc: pricing}
}

func (rc *RoomController) CreateRoom(c *gin.Context) {
	var in services.CreateRoomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	room, err := rc.RoomSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

func (rc *RoomController) GetRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	room, err := rc.RoomSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	locale := c.DefaultQuery("locale", "")
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"room":         room,
		"display_name": room.DisplayName(locale),
	})
}

// GetCalendar lists one slot per day of [from, to).
func (rc *RoomController) GetCalendar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	from, err := utils.ParseDate(c.Query("from"))
	if err != nil {
		badRequest(c, "from: "+err.Error())
		return
	}
	to, err := utils.ParseDate(c.Query("to"))
	if err != nil {
		badRequest(c, "to: "+err.Error())
		return
	}
	slots, err := rc.Ledger.Calendar(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, slots)
}

func (rc *RoomController) GetQuote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	in, err := utils.ParseDate(c.Query("check_in"))
	if err != nil {
		badRequest(c, "check_in: "+err.Error())
		return
	}
	out, err := utils.ParseDate(c.Query("check_out"))
	if err != nil {
		badRequest(c, "check_out: "+err.Error())
		return
	}
	q, err := rc.PricingSvc.Quote(c.Request.Context(), id, in, out)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, q)
}
