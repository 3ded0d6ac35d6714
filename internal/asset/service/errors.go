package service

import "errors"

// 业务错误哨兵。handler 层用 errors.Is 把它们映射成响应码，
// 服务内部用 fmt.Errorf("%w: ...") 包装补充上下文。
var (
	// ErrInvalidState 当前状态不允许该操作
	ErrInvalidState = errors.New("invalid state transition")
	// ErrResourceUnavailable 设备被其他流程持有
	ErrResourceUnavailable = errors.New("equipment unavailable")
	// ErrConflict 日期区间与已有预约重叠
	ErrConflict = errors.New("reservation conflict")
	// ErrLimitExceeded 超出用户配额
	ErrLimitExceeded = errors.New("limit exceeded")
	// ErrInvalidRange 日期区间不合法
	ErrInvalidRange = errors.New("invalid date range")
)
