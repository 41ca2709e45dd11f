package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
)

func TestResolveDelayFixed(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		name  string
		delay journey.DelaySpec
		want  time.Duration
	}{
		{"零延迟", journey.FixedDelay(0, journey.UnitDays), 0},
		{"天", journey.FixedDelay(14, journey.UnitDays), 14 * 24 * time.Hour},
		{"周", journey.FixedDelay(2, journey.UnitWeeks), 14 * 24 * time.Hour},
		{"月按30天", journey.FixedDelay(1, journey.UnitMonths), 30 * 24 * time.Hour},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveDelay(tc.delay, rng)
			if got != tc.want {
				t.Errorf("期望%v，实际为: %v", tc.want, got)
			}
		})
	}
}

func TestResolveDelayRangeInclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	delay := journey.RangeDelay(3, 5, journey.UnitDays)

	seen := make(map[time.Duration]bool)
	for i := 0; i < 200; i++ {
		d := ResolveDelay(delay, rng)
		if d < 3*24*time.Hour || d > 5*24*time.Hour {
			t.Fatalf("区间抽取越界: %v", d)
		}
		seen[d] = true
	}

	// 闭区间两端均可取到
	if !seen[3*24*time.Hour] || !seen[5*24*time.Hour] {
		t.Errorf("期望[3,5]闭区间两端都被取到，实际为: %v", seen)
	}
}

func TestResolveDelayDegenerateRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// min==max退化为固定值
	d := ResolveDelay(journey.RangeDelay(7, 7, journey.UnitDays), rng)
	if d != 7*24*time.Hour {
		t.Errorf("期望7天，实际为: %v", d)
	}
}
