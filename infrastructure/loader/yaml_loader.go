// Package loader 从YAML文件装载旅程规格。引擎自身不解析任何文件格式，
// 文件装载属于上游配置环节。
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark64oswald/healthsim-skills-sub002/domain/journey"
)

// journeyFile 旅程文件结构
type journeyFile struct {
	JourneyID   string      `yaml:"journey_id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Version     string      `yaml:"version"`
	Product     string      `yaml:"product"`
	Events      []eventFile `yaml:"events"`
}

// eventFile 事件定义文件结构
type eventFile struct {
	EventID    string          `yaml:"event_id"`
	Name       string          `yaml:"name"`
	EventType  string          `yaml:"event_type"`
	Product    string          `yaml:"product"`
	Delay      delayFile       `yaml:"delay"`
	DependsOn  string          `yaml:"depends_on"`
	Conditions []conditionFile `yaml:"conditions"`
	Parameters map[string]any  `yaml:"parameters"`
}

// delayFile 延迟文件结构：value为固定延迟，min/max为区间延迟
type delayFile struct {
	Value *int   `yaml:"value"`
	Min   *int   `yaml:"min"`
	Max   *int   `yaml:"max"`
	Unit  string `yaml:"unit"`
}

// conditionFile 条件文件结构
type conditionFile struct {
	Field    string `yaml:"field"`
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

// Parse 解析YAML内容为旅程规格
func Parse(data []byte) (*journey.Specification, error) {
	var file journeyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, NewLoaderErrorf("failed to parse journey yaml: %v", err)
	}

	builder := journey.NewBuilder(file.Name).
		SetJourneyID(file.JourneyID).
		SetDescription(file.Description).
		SetVersion(file.Version).
		SetProduct(file.Product)

	for _, ev := range file.Events {
		builder.AddEvent(ev.EventID, ev.Name, ev.EventType)
		if ev.Product != "" {
			builder.SetEventProduct(ev.EventID, ev.Product)
		}
		builder.SetDelay(ev.EventID, ev.Delay.toSpec())
		if ev.DependsOn != "" {
			builder.SetDependsOn(ev.EventID, ev.DependsOn)
		}
		for _, cond := range ev.Conditions {
			builder.AddCondition(ev.EventID, cond.Field, cond.Operator, normalizeValue(cond.Value))
		}
		if ev.Parameters != nil {
			builder.SetParameters(ev.EventID, normalizeMap(ev.Parameters))
		}
	}

	spec, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid journey file: %w", err)
	}
	return spec, nil
}

// toSpec 文件延迟转为领域延迟
func (d delayFile) toSpec() journey.DelaySpec {
	unit := journey.DelayUnit(d.Unit)
	if unit == "" {
		unit = journey.UnitDays
	}

	if d.Min != nil || d.Max != nil {
		min, max := 0, 0
		if d.Min != nil {
			min = *d.Min
		}
		if d.Max != nil {
			max = *d.Max
		}
		return journey.RangeDelay(min, max, unit)
	}

	value := 0
	if d.Value != nil {
		value = *d.Value
	}
	return journey.FixedDelay(value, unit)
}

// LoadFile 从文件装载旅程规格
func LoadFile(path string) (*journey.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewLoaderErrorf("failed to read journey file %s: %v", path, err)
	}
	return Parse(data)
}

// LoadDir 装载目录下的全部旅程文件（*.yaml、*.yml，按文件名排序）
func LoadDir(dir string) ([]*journey.Specification, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, NewLoaderErrorf("failed to read journey dir %s: %v", dir, err)
	}

	names := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	specs := make([]*journey.Specification, 0, len(names))
	for _, name := range names {
		spec, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

// normalizeMap 将yaml解码出的map[any]any统一为map[string]any
func normalizeMap(m map[string]any) map[string]any {
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		normalized[k] = normalizeValue(v)
	}
	return normalized
}

// normalizeValue 递归归一化yaml值
func normalizeValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		return normalizeMap(value)
	case map[any]any:
		normalized := make(map[string]any, len(value))
		for k, item := range value {
			normalized[fmt.Sprint(k)] = normalizeValue(item)
		}
		return normalized
	case []any:
		normalized := make([]any, len(value))
		for i, item := range value {
			normalized[i] = normalizeValue(item)
		}
		return normalized
	default:
		return v
	}
}
