package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hospitality-backoffice/services"
	"hospitality-backoffice/utils"
)

type settingPayload struct {
	Value interface{} `json:"value"`
	Type  string      `json:"type"`
}

type SettingsController struct {
	Settings *services.SettingsStore
}

func NewSettingsController(store *services.SettingsStore) *SettingsController {
	return &SettingsController{Settings: store}
}

func (sc *SettingsController) GetSettings(c *gin.Context) {
	all, err := sc.Settings.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, all)
}

func (sc *SettingsController) UpdateSetting(c *gin.Context) {
	var payload settingPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, err.Error())
		return
	}
	row, err := sc.Settings.Set(c.Request.Context(), c.Param("key"), payload.Value, payload.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, row)
}
