package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hospitality-backoffice/services"
	"hospitality-backoffice/utils"
)

type respondRequest struct {
	Response string `json:"response" binding:"required"`
}

type ReviewController struct {
	ReviewSvc *services.ReviewService
}

func NewReviewController(svc *services.ReviewService) *ReviewController {
	return &ReviewController{ReviewSvc: svc}
}

func (rc *ReviewController) CreateReview(c *gin.Context) {
	var in services.CreateReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	review, err := rc.ReviewSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, review)
}

func (rc *ReviewController) ApproveReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	review, err := rc.ReviewSvc.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, review)
}

func (rc *ReviewController) RejectReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	review, err := rc.ReviewSvc.Reject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, review)
}

func (rc *ReviewController) RespondReview(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	review, err := rc.ReviewSvc.Respond(c.Request.Context(), id, req.Response)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, review)
}
