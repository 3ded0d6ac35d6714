package handler

import (
	"fmt"
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/service"
	"github.com/gin-gonic/gin"
)

// LoanHandler 借用单接口
type LoanHandler struct {
	svc *service.LoanService
}

func NewLoanHandler(svc *service.LoanService) *LoanHandler {
	return &LoanHandler{svc: svc}
}

// Create 提交借用申请
// POST /api/v1/loans
func (h *LoanHandler) Create(c *gin.Context) {
	var req service.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	loan, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, loan)
}

// Get 借用单详情
// GET /api/v1/loans/:id
func (h *LoanHandler) Get(c *gin.Context) {
	loan, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, loan)
}

// List 借用单列表
// GET /api/v1/loans?user_id=&equipment_id=&status=
func (h *LoanHandler) List(c *gin.Context) {
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

// Approve 批准借用
// POST /api/v1/loans/:id/approve
func (h *LoanHandler) Approve(c *gin.Context) {
	loan, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, loan)
}

// Reject 驳回借用
// POST /api/v1/loans/:id/reject
func (h *LoanHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	loan, err := h.svc.Reject(c.Request.Context(), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, loan)
}

// Return 归还设备
// POST /api/v1/loans/:id/return
func (h *LoanHandler) Return(c *gin.Context) {
	var req service.ReturnLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	loan, err := h.svc.Return(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, loan)
}

// Export 导出借用单xlsx
// GET /api/v1/loans/export?status=&user_id=
func (h *LoanHandler) Export(c *gin.Context) {
	filters := map[string]string{
		"user_id":      c.Query("user_id"),
		"equipment_id": c.Query("equipment_id"),
		"status":       c.Query("status"),
	}

	f, err := h.svc.Export(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("loans_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "导出失败: "+err.Error())
	}
}
