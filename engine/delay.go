package engine

import (
	"math/rand"
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
)

// ResolveDelay 将延迟描述解析为具体时长。固定延迟原样返回；
// 区间延迟从[min,max]闭区间均匀抽取一个整数。随机源由引擎实例
// 共享，抽取顺序决定了同一种子下的可复现性。
func ResolveDelay(delay journey.DelaySpec, rng *rand.Rand) time.Duration {
	value := delay.Value
	if delay.IsRange {
		if delay.Max <= delay.Min {
			value = delay.Min
		} else {
			value = delay.Min + rng.Intn(delay.Max-delay.Min+1)
		}
	}
	if value < 0 {
		value = 0
	}
	return time.Duration(value*delay.Unit.Days()) * 24 * time.Hour
}
