package engine

import (
	"regexp"
)

// skill_ref解析来源标记
const (
	ResolvedFromSkill    = "skill"    // 外部知识命中
	ResolvedFromFallback = "fallback" // 知识未命中，使用fallback
	ResolvedFromEmpty    = "empty"    // 知识未命中且无fallback，静默置空
)

// skillRefKey 参数map中触发知识解析的保留键
const skillRefKey = "skill_ref"

// entityRefs 处理器输出中承载产物引用的保留键
const entityRefsKey = "entity_refs"

// entityTokenPattern 实体变量令牌：${entity.<dot.path>}，整串匹配
var entityTokenPattern = regexp.MustCompile(`^\$\{entity\.([^}]+)\}$`)

// SkillRef 外部知识引用
type SkillRef struct {
	Skill       string         `json:"skill"`
	Lookup      string         `json:"lookup"`
	Context     map[string]any `json:"context,omitempty"`
	Fallback    any            `json:"fallback,omitempty"`
	HasFallback bool           `json:"-"`
}

// SkillResult 知识解析结果
type SkillResult struct {
	Parameters map[string]any `json:"parameters"`
	SkillUsed  string         `json:"skill_used,omitempty"`
}

// SkillResolver 外部知识解析器。引擎不关心知识的存储方式，
// 只依赖这一个调用；未命中以ok=false表示，不作为错误。
type SkillResolver interface {
	Resolve(ref SkillRef) (*SkillResult, bool)
}

// ResolveParameters 参数解析管线：先解析skill_ref（其context内的
// 实体令牌先行替换），再做实体变量替换；两条规则递归进入嵌套map，
// 其余类型原样保留。实体变量未命中时令牌原样保留；skill_ref未命中
// 时按fallback语义静默降级，均不报错。
func ResolveParameters(parameters map[string]any, entity Entity, skills SkillResolver) map[string]any {
	if parameters == nil {
		return nil
	}

	resolved := make(map[string]any, len(parameters))

	// skill_ref先于同层的实体变量替换：其context可能内嵌实体令牌
	if raw, ok := parameters[skillRefKey]; ok {
		merged, _ := resolveSkillRef(raw, entity, skills)
		for k, v := range merged {
			resolved[k] = v
		}
	}

	// 其余键：显式声明的键覆盖知识解析出的同名键
	for key, value := range parameters {
		if key == skillRefKey {
			continue
		}
		resolved[key] = resolveValue(value, entity, skills)
	}

	return resolved
}

// resolveValue 解析单个参数值
func resolveValue(value any, entity Entity, skills SkillResolver) any {
	switch v := value.(type) {
	case string:
		return substituteEntityToken(v, entity)
	case map[string]any:
		return ResolveParameters(v, entity, skills)
	default:
		return value
	}
}

// substituteEntityToken 实体变量替换，保持原始类型；未命中时令牌原样保留
func substituteEntityToken(s string, entity Entity) any {
	match := entityTokenPattern.FindStringSubmatch(s)
	if match == nil {
		return s
	}
	if entity == nil {
		return s
	}
	value, ok := entity.Get(match[1])
	if !ok {
		return s
	}
	return value
}

// resolveSkillRef 解析skill_ref引用，返回待合并的参数map及来源标记
func resolveSkillRef(raw any, entity Entity, skills SkillResolver) (map[string]any, string) {
	ref, ok := parseSkillRef(raw)
	if !ok {
		// 引用格式不合法，与未命中同样静默处理
		return map[string]any{}, ResolvedFromEmpty
	}

	// 调用前先替换context中的实体令牌
	if ref.Context != nil {
		ref.Context = ResolveParameters(ref.Context, entity, nil)
	}

	if skills != nil {
		if result, ok := skills.Resolve(ref); ok && result != nil {
			return result.Parameters, ResolvedFromSkill
		}
	}

	if ref.HasFallback {
		return map[string]any{"value": ref.Fallback}, ResolvedFromFallback
	}
	return map[string]any{}, ResolvedFromEmpty
}

// parseSkillRef 从参数值解析知识引用
func parseSkillRef(raw any) (SkillRef, bool) {
	switch v := raw.(type) {
	case SkillRef:
		return v, true
	case map[string]any:
		ref := SkillRef{}
		if skill, ok := v["skill"].(string); ok {
			ref.Skill = skill
		}
		if lookup, ok := v["lookup"].(string); ok {
			ref.Lookup = lookup
		}
		if ctx, ok := v["context"].(map[string]any); ok {
			ref.Context = ctx
		}
		if fallback, ok := v["fallback"]; ok {
			ref.Fallback = fallback
			ref.HasFallback = true
		}
		if ref.Skill == "" && ref.Lookup == "" {
			return SkillRef{}, false
		}
		return ref, true
	default:
		return SkillRef{}, false
	}
}
