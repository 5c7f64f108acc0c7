package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"room-service/models"
	"room-service/services"
	"room-service/utils"
)

type MenuController struct {
	MenuSvc  *services.MenuService
	ImageSvc *services.ImageService
}

func NewMenuController(svc *services.MenuService, images *services.ImageService) *MenuController {
	return &MenuController{MenuSvc: svc, ImageSvc: images}
}

// menuItemPayload is a menu item plus an optional inline photo upload.
type menuItemPayload struct {
	models.MenuItem
	ImageData string `json:"imageData"`
}

type menuPatchPayload struct {
	models.MenuItemPatch
	ImageData string `json:"imageData"`
}

// storeImage saves an uploaded photo and returns its public path, or "" when none was sent.
func (ctrl *MenuController) storeImage(c *gin.Context, b64 string) (string, bool) {
	if b64 == "" {
		return "", true
	}
	if ctrl.ImageSvc == nil {
		utils.JSONFieldError(c, http.StatusBadRequest, "imageData", "image uploads are disabled")
		return "", false
	}
	path, err := ctrl.ImageSvc.SaveBase64Image(b64, "menu")
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return path, true
}

// dropImage removes a photo saved for a request that then failed.
func (ctrl *MenuController) dropImage(path string) {
	if path == "" || ctrl.ImageSvc == nil {
		return
	}
	if err := ctrl.ImageSvc.RemoveImage(path); err != nil {
		log.Warn().Err(err).Str("image", path).Msg("failed to remove orphaned menu image")
	}
}

// GetMenu (GET /api/menu) - only items open for ordering
func (ctrl *MenuController) GetMenu(c *gin.Context) {
	items, err := ctrl.MenuSvc.ListMenu(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, items)
}

// GetStaffMenu (GET /api/staff/menu) - includes disabled items
func (ctrl *MenuController) GetStaffMenu(c *gin.Context) {
	items, err := ctrl.MenuSvc.ListMenu(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, items)
}

// CreateMenuItem (POST /api/staff/menu)
func (ctrl *MenuController) CreateMenuItem(c *gin.Context) {
	var payload menuItemPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	item := payload.MenuItem
	if err := ctrl.MenuSvc.CheckNewItem(item); err != nil {
		respondError(c, err)
		return
	}
	path, ok := ctrl.storeImage(c, payload.ImageData)
	if !ok {
		return
	}
	if path != "" {
		item.Image = path
	}
	created, err := ctrl.MenuSvc.CreateMenuItem(c.Request.Context(), item)
	if err != nil {
		ctrl.dropImage(path)
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, created)
}

// UpdateMenuItem (PUT /api/staff/menu/:id)
func (ctrl *MenuController) UpdateMenuItem(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	var payload menuPatchPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	patch := payload.MenuItemPatch
	if err := ctrl.MenuSvc.CheckUpdate(c.Request.Context(), id, patch); err != nil {
		respondError(c, err)
		return
	}
	path, ok := ctrl.storeImage(c, payload.ImageData)
	if !ok {
		return
	}
	if path != "" {
		patch.Image = &path
	}
	updated, err := ctrl.MenuSvc.UpdateMenuItem(c.Request.Context(), id, patch)
	if err != nil {
		ctrl.dropImage(path)
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, updated)
}

type disabledPayload struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// SetMenuItemDisabled (PATCH /api/staff/menu/:id/disabled)
func (ctrl *MenuController) SetMenuItemDisabled(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	var payload disabledPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONFieldError(c, http.StatusBadRequest, "disabled", "disabled must be true or false")
		return
	}
	updated, err := ctrl.MenuSvc.SetDisabled(c.Request.Context(), id, *payload.Disabled)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, updated)
}

// DeleteMenuItem (DELETE /api/staff/menu/:id)
func (ctrl *MenuController) DeleteMenuItem(c *gin.Context) {
	id, ok := parseInt64Param(c, "id")
	if !ok {
		return
	}
	if err := ctrl.MenuSvc.DeleteMenuItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
