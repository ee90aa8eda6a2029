// pkg/engine/matcher.go
package engine

import (
	"SiteRadar/pkg/model"
)

// MatchRules 规则匹配器
// 纯函数：对一条移动事件评估一套启用规则，返回全部命中
// 规则须按ID升序传入（RuleStore.SnapshotEnabled 已保证），
// 使下游任何"首个命中优先"策略都可复现
func MatchRules(event *model.MovementEvent, asset *model.Asset, rules []*model.Rule) []model.RuleMatch {
	var matches []model.RuleMatch

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		matched := make([]model.ConditionKind, 0, len(rule.Conditions))
		all := true
		for _, cond := range rule.Conditions {
			if !cond.Holds(event, asset) {
				all = false
				break
			}
			matched = append(matched, cond.Kind)
		}

		// 所有已设置的条件同时成立才算命中；未设置的维度即通配
		if all {
			matches = append(matches, model.RuleMatch{
				Rule:    rule,
				Matched: matched,
			})
		}
	}

	return matches
}
