package handler

import (
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/service"
	"github.com/gin-gonic/gin"
)

// EquipmentHandler 设备台账接口
type EquipmentHandler struct {
	svc *service.EquipmentService
}

func NewEquipmentHandler(svc *service.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{svc: svc}
}

// Create 登记设备
// POST /api/v1/equipments
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req service.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	eq, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, eq)
}

// Get 设备详情
// GET /api/v1/equipments/:id
func (h *EquipmentHandler) Get(c *gin.Context) {
	eq, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eq)
}

// List 设备列表
// GET /api/v1/equipments?keyword=&status=&category=&condition=
func (h *EquipmentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"keyword":   c.Query("keyword"),
		"status":    c.Query("status"),
		"category":  c.Query("category"),
		"condition": c.Query("condition"),
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Update 更新设备基础信息
// PUT /api/v1/equipments/:id
func (h *EquipmentHandler) Update(c *gin.Context) {
	var req service.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	eq, err := h.svc.Update(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eq)
}

// Retire 报废设备
// POST /api/v1/equipments/:id/retire
func (h *EquipmentHandler) Retire(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	eq, err := h.svc.Retire(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, eq)
}

// Activity 实体操作日志
// GET /api/v1/activity/:entity_type/:entity_id
func (h *EquipmentHandler) Activity(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListActivity(c.Request.Context(), c.Param("entity_type"), c.Param("entity_id"), page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items, "total": total})
}
