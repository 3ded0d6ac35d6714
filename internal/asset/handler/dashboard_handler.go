package handler

import (
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/service"
	"github.com/gin-gonic/gin"
)

// DashboardHandler 看板与运维接口
type DashboardHandler struct {
	svc   *service.DashboardService
	sweep *service.SweepService
}

func NewDashboardHandler(svc *service.DashboardService, sweep *service.SweepService) *DashboardHandler {
	return &DashboardHandler{svc: svc, sweep: sweep}
}

// Summary 看板汇总
// GET /api/v1/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, summary)
}

// RunSweep 手动触发一轮完整扫描（管理员用）
// POST /api/v1/admin/sweep
func (h *DashboardHandler) RunSweep(c *gin.Context) {
	result := h.sweep.Run(c.Request.Context())
	Success(c, result)
}

// SweepOverdueLoans 手动触发借用逾期扫描
// POST /api/v1/admin/sweeps/overdue-loans
func (h *DashboardHandler) SweepOverdueLoans(c *gin.Context) {
	result := h.sweep.RunOverdue(c.Request.Context())
	Success(c, result)
}

// SweepStaleReservations 手动触发预约过期扫描
// POST /api/v1/admin/sweeps/stale-reservations
func (h *DashboardHandler) SweepStaleReservations(c *gin.Context) {
	result := h.sweep.RunExpiry(c.Request.Context())
	Success(c, result)
}
