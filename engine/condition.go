package engine

import (
	"reflect"
	"strings"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
)

// EvaluateConditions 对条件列表求AND。上下文为实体属性加注入参数，
// 参数优先。任一条件的路径段缺失时该条件为false（只失败不报错），
// 空条件列表为true。
func EvaluateConditions(conditions []journey.Condition, entity Entity, params map[string]any) bool {
	for _, cond := range conditions {
		if !evaluateCondition(cond, entity, params) {
			return false
		}
	}
	return true
}

// evaluateCondition 求单个条件
func evaluateCondition(cond journey.Condition, entity Entity, params map[string]any) bool {
	ctxValue, ok := lookupContext(cond.Field, entity, params)
	if !ok {
		return false
	}

	switch cond.Operator {
	case journey.OpEqual:
		return equalValues(ctxValue, cond.Value)
	case journey.OpNotEqual:
		return !equalValues(ctxValue, cond.Value)
	case journey.OpGreaterOrEqual:
		cmp, ok := compareValues(ctxValue, cond.Value)
		return ok && cmp >= 0
	case journey.OpLessOrEqual:
		cmp, ok := compareValues(ctxValue, cond.Value)
		return ok && cmp <= 0
	case journey.OpGreater:
		cmp, ok := compareValues(ctxValue, cond.Value)
		return ok && cmp > 0
	case journey.OpLess:
		cmp, ok := compareValues(ctxValue, cond.Value)
		return ok && cmp < 0
	case journey.OpIn:
		// 上下文值 ∈ 条件值
		return memberOf(ctxValue, cond.Value)
	case journey.OpContains:
		// 条件值 ∈ 上下文值（与in方向相反）
		return memberOf(cond.Value, ctxValue)
	default:
		return false
	}
}

// lookupContext 上下文取值：先查注入参数，再查实体属性
func lookupContext(path string, entity Entity, params map[string]any) (any, bool) {
	if params != nil {
		if value, ok := lookupPath(params, path); ok {
			return value, true
		}
	}
	if entity != nil {
		return entity.Get(path)
	}
	return nil, false
}

// equalValues 等值比较，数值类型统一为float64后比较
func equalValues(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// compareValues 大小比较，返回-1/0/1；不可比较时ok为false
func compareValues(a, b any) (int, bool) {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}

	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return strings.Compare(sa, sb), true
	}

	return 0, false
}

// memberOf 成员判定：collection为切片时按元素等值判定，
// 都为字符串时按子串判定
func memberOf(item, collection any) bool {
	rv := reflect.ValueOf(collection)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if equalValues(item, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	case reflect.String:
		if s, ok := item.(string); ok {
			return strings.Contains(rv.String(), s)
		}
		return false
	default:
		return false
	}
}

// toFloat 数值类型归一化
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
