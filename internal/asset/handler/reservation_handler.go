package handler

import (
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/service"
	"github.com/gin-gonic/gin"
)

// ReservationHandler 预约单接口
type ReservationHandler struct {
	svc *service.ReservationService
}

func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

// Create 提交预约
// POST /api/v1/reservations
func (h *ReservationHandler) Create(c *gin.Context) {
	var req service.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	res, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, res)
}

// Get 预约单详情
// GET /api/v1/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, res)
}

// List 预约单列表
// GET /api/v1/reservations?user_id=&equipment_id=&status=
func (h *ReservationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"user_id":      c.Query("user_id"),
		"equipment_id": c.Query("equipment_id"),
		"status":       c.Query("status"),
	}

	result, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}

// Availability 查询设备区间占用
// GET /api/v1/equipments/:id/availability?start=2026-09-01&end=2026-09-07
func (h *ReservationHandler) Availability(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		BadRequest(c, "start 日期格式错误")
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		BadRequest(c, "end 日期格式错误")
		return
	}

	items, err := h.svc.CheckAvailability(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"items": items, "available": len(items) == 0})
}

// Approve 批准预约
// POST /api/v1/reservations/:id/approve
func (h *ReservationHandler) Approve(c *gin.Context) {
	res, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, res)
}

// Reject 驳回预约
// POST /api/v1/reservations/:id/reject
func (h *ReservationHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	res, err := h.svc.Reject(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, res)
}

// Cancel 取消预约
// POST /api/v1/reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	res, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, res)
}

// Activate 领取预约
// POST /api/v1/reservations/:id/activate
func (h *ReservationHandler) Activate(c *gin.Context) {
	res, err := h.svc.Activate(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, res)
}

// Complete 完成预约
// POST /api/v1/reservations/:id/complete
func (h *ReservationHandler) Complete(c *gin.Context) {
	res, err := h.svc.Complete(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, res)
}

// ConvertToLoan 预约转借用
// POST /api/v1/reservations/:id/convert
func (h *ReservationHandler) ConvertToLoan(c *gin.Context) {
	loan, err := h.svc.ConvertToLoan(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, loan)
}
