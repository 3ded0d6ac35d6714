package handler

import (
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/service"
	"github.com/gin-gonic/gin"
)

// IncidentHandler 故障报修接口
type IncidentHandler struct {
	svc *service.IncidentService
}

func NewIncidentHandler(svc *service.IncidentService) *IncidentHandler {
	return &IncidentHandler{svc: svc}
}

// Report 报修
// POST /api/v1/incidents
func (h *IncidentHandler) Report(c *gin.Context) {
	var req service.ReportIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	inc, err := h.svc.Report(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, inc)
}

// Get 报修单详情
// GET /api/v1/incidents/:id
func (h *IncidentHandler) Get(c *gin.Context) {
	inc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inc)
}

// List 报修单列表
// GET /api/v1/incidents?equipment_id=&status=&priority=&assigned_to=
func (h *IncidentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"equipment_id": c.Query("equipment_id"),
		"status":       c.Query("status"),
		"priority":     c.Query("priority"),
		"assigned_to":  c.Query("assigned_to"),
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Review 开始审核
// POST /api/v1/incidents/:id/review
func (h *IncidentHandler) Review(c *gin.Context) {
	inc, err := h.svc.Review(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inc)
}

// Assign 指派维修人
// POST /api/v1/incidents/:id/assign
func (h *IncidentHandler) Assign(c *gin.Context) {
	var req struct {
		AssigneeID string `json:"assignee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	inc, err := h.svc.Assign(c.Request.Context(), c.Param("id"), GetUserID(c), req.AssigneeID)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inc)
}

// Unassign 撤销指派
// POST /api/v1/incidents/:id/unassign
func (h *IncidentHandler) Unassign(c *gin.Context) {
	inc, err := h.svc.Unassign(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inc)
}

// StartRepair 开始维修
// POST /api/v1/incidents/:id/start-repair
func (h *IncidentHandler) StartRepair(c *gin.Context) {
	inc, err := h.svc.StartRepair(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inc)
}

// Resolve 解决报修
// POST /api/v1/incidents/:id/resolve
func (h *IncidentHandler) Resolve(c *gin.Context) {
	var req service.ResolveIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	inc, err := h.svc.Resolve(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inc)
}

// Close 关闭报修单
// POST /api/v1/incidents/:id/close
func (h *IncidentHandler) Close(c *gin.Context) {
	inc, err := h.svc.Close(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inc)
}

// Reopen 重开报修单
// POST /api/v1/incidents/:id/reopen
func (h *IncidentHandler) Reopen(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	inc, err := h.svc.Reopen(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, inc)
}
