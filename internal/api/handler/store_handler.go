package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/internal/dto"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// StoreHandler store administration.
type StoreHandler struct {
	storeSvc service.StoreService
}

// NewStoreHandler creates a StoreHandler.
func NewStoreHandler(storeSvc service.StoreService) *StoreHandler {
	return &StoreHandler{storeSvc: storeSvc}
}

// Create POST /api/v1/stores
func (h *StoreHandler) Create(c *gin.Context) {
	var req dto.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 10001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	store, err := h.storeSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleStoreError(c, err)
		return
	}

	response.Created(c, store)
}

// List GET /api/v1/stores
func (h *StoreHandler) List(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	stores, err := h.storeSvc.List(c.Request.Context(), caller)
	if err != nil {
		h.handleStoreError(c, err)
		return
	}

	response.OK(c, gin.H{"list": stores})
}

// Get GET /api/v1/stores/:id
func (h *StoreHandler) Get(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	store, err := h.storeSvc.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleStoreError(c, err)
		return
	}

	response.OK(c, store)
}

// Update PUT /api/v1/stores/:id
func (h *StoreHandler) Update(c *gin.Context) {
	var req dto.UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, 10001, err)
		return
	}
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	store, err := h.storeSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleStoreError(c, err)
		return
	}

	response.OK(c, store)
}

// Delete DELETE /api/v1/stores/:id
func (h *StoreHandler) Delete(c *gin.Context) {
	caller, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.storeSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleStoreError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *StoreHandler) handleStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreCodeExists):
		response.Conflict(c, 12001, "store code already in use", nil)
	case errors.Is(err, service.ErrStoreInUse):
		response.Conflict(c, 12002, "store still has active employees", nil)
	default:
		handleCommonError(c, err)
	}
}
