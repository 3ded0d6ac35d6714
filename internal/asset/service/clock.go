package service

import (
	"time"

	"github.com/LuisVeraVR/sigabe-backend-sub000/internal/asset/entity"
)

// Clock 时间源。所有涉及"今天"的判断（到期、过期、激活）都走它，
// 测试里用 FixedClock 把时间钉住。
type Clock interface {
	Now() time.Time
	Today() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func (c realClock) Today() time.Time { return entity.DateOnly(c.Now()) }

// NewRealClock 创建系统时钟（UTC）
func NewRealClock() Clock {
	return realClock{}
}

// FixedClock 固定时钟，测试用
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

func (c *FixedClock) Today() time.Time { return entity.DateOnly(c.T) }

// Advance 把固定时钟往前拨
func (c *FixedClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}
