package engine

import (
	"reflect"
	"strings"
)

// Entity 实体访问器：按点分路径读取合成实体的属性
type Entity interface {
	// Get 按路径取值，路径不存在时ok为false
	Get(path string) (any, bool)
}

// MapEntity 基于嵌套map的实体实现
type MapEntity map[string]any

// Get 按点分路径取值
func (m MapEntity) Get(path string) (any, bool) {
	return lookupPath(map[string]any(m), path)
}

// lookupPath 沿点分路径逐段取值：先按map键取，再按结构体字段取
func lookupPath(root any, path string) (any, bool) {
	current := root
	for _, segment := range strings.Split(path, ".") {
		value, ok := lookupSegment(current, segment)
		if !ok {
			return nil, false
		}
		current = value
	}
	return current, true
}

// lookupSegment 取单段的值
func lookupSegment(container any, key string) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		value, ok := c[key]
		return value, ok
	case MapEntity:
		value, ok := c[key]
		return value, ok
	case Entity:
		return c.Get(key)
	}

	// 结构体字段回退（忽略大小写，支持指针）
	rv := reflect.ValueOf(container)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if field.IsExported() && strings.EqualFold(field.Name, key) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// entityID 从实体属性推导实体ID
func entityID(entity Entity) string {
	if entity == nil {
		return ""
	}
	for _, key := range []string{"id", "entity_id"} {
		if v, ok := entity.Get(key); ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
