package handler

import (
	"errors"
	"strconv"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/repository"
	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Equipment   *EquipmentHandler
	Loan        *LoanHandler
	Reservation *ReservationHandler
	Incident    *IncidentHandler
	Maintenance *MaintenanceHandler
	Dashboard   *DashboardHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Equipment:   NewEquipmentHandler(svc.Equipment),
		Loan:        NewLoanHandler(svc.Loan),
		Reservation: NewReservationHandler(svc.Reservation),
		Incident:    NewIncidentHandler(svc.Incident),
		Maintenance: NewMaintenanceHandler(svc.Maintenance),
		Dashboard:   NewDashboardHandler(svc.Dashboard, svc.Sweep),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// 业务错误码。前两位对应HTTP状态码，后两位区分具体原因。
const (
	CodeInvalidState        = 40901
	CodeResourceUnavailable = 40902
	CodeConflict            = 40903
	CodeLimitExceeded       = 40904
)

// HandleError 把服务层错误映射为响应码
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidRange):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		Error(c, CodeInvalidState, err.Error())
	case errors.Is(err, service.ErrResourceUnavailable):
		Error(c, CodeResourceUnavailable, err.Error())
	case errors.Is(err, service.ErrConflict):
		Error(c, CodeConflict, err.Error())
	case errors.Is(err, service.ErrLimitExceeded):
		Error(c, CodeLimitExceeded, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
