package handler

import (
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/service"
	"github.com/gin-gonic/gin"
)

// MaintenanceHandler 维保工单接口
type MaintenanceHandler struct {
	svc *service.MaintenanceService
}

func NewMaintenanceHandler(svc *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{svc: svc}
}

// Schedule 排期维保
// POST /api/v1/maintenances
func (h *MaintenanceHandler) Schedule(c *gin.Context) {
	var req service.ScheduleMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	m, err := h.svc.Schedule(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, m)
}

// Get 维保工单详情
// GET /api/v1/maintenances/:id
func (h *MaintenanceHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, m)
}

// List 维保工单列表
// GET /api/v1/maintenances?equipment_id=&status=&type=
func (h *MaintenanceHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"equipment_id": c.Query("equipment_id"),
		"status":       c.Query("status"),
		"type":         c.Query("type"),
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Start 开始执行
// POST /api/v1/maintenances/:id/start
func (h *MaintenanceHandler) Start(c *gin.Context) {
	m, err := h.svc.Start(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, m)
}

// Complete 完成维保
// POST /api/v1/maintenances/:id/complete
func (h *MaintenanceHandler) Complete(c *gin.Context) {
	var req service.CompleteMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	m, err := h.svc.Complete(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, m)
}

// Cancel 取消维保
// POST /api/v1/maintenances/:id/cancel
func (h *MaintenanceHandler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	m, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, m)
}
