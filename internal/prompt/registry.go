package prompt

import (
	"fmt"
	"sync"

	"github.com/John-Robertt/tipster/internal/domain"
)

// Registry 是策略的只读注册表（按 ID 索引，保留注册顺序用于展示）。
type Registry struct {
	byID  map[domain.Strategy]Strategy
	order []domain.Strategy
}

func NewRegistry(strategies ...Strategy) (Registry, error) {
	byID := make(map[domain.Strategy]Strategy, len(strategies))
	order := make([]domain.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s == nil {
			return Registry{}, fmt.Errorf("strategy 不能为空")
		}
		id := s.ID()
		if id == "" {
			return Registry{}, fmt.Errorf("strategy.ID 不能为空")
		}
		if _, ok := byID[id]; ok {
			return Registry{}, fmt.Errorf("重复的 strategy：%q", id)
		}
		byID[id] = s
		order = append(order, id)
	}
	return Registry{byID: byID, order: order}, nil
}

var builtin = sync.OnceValue(func() Registry {
	r, err := NewRegistry(cautious, valueHunter, goalsSpecialist, highRewardSingle, marketSpecialist)
	if err != nil {
		panic(err)
	}
	return r
})

// Builtin 返回内置的全部策略（顺序与 domain.Strategies 一致）。返回值只读。
func Builtin() Registry { return builtin() }

func (r Registry) Get(id domain.Strategy) (Strategy, bool) {
	if r.byID == nil {
		return nil, false
	}
	s, ok := r.byID[id]
	return s, ok
}

// All 按注册顺序返回全部策略。
func (r Registry) All() []Strategy {
	out := make([]Strategy, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Build 是 Get + Build 的便捷组合。
func (r Registry) Build(id domain.Strategy, match string, p Params) (string, error) {
	s, ok := r.Get(id)
	if !ok {
		return "", fmt.Errorf("未知 strategy：%q", id)
	}
	return s.Build(match, p)
}
