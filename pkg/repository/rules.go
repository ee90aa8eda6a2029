package repository

import (
	"sort"
	"sync"
	"time"

	"SiteRadar/pkg/model"
)

// RuleStore 规则存储（内存）
// 编辑只对之后评估的事件生效；评估方通过 SnapshotEnabled 取一致性快照
type RuleStore struct {
	mu    sync.RWMutex
	rules map[string]*model.Rule
}

// NewRuleStore 创建规则存储
func NewRuleStore() *RuleStore {
	return &RuleStore{
		rules: make(map[string]*model.Rule),
	}
}

// Upsert 新增或编辑规则
// 同ID规则允许编辑，但不允许改变其最高优先级违规类别（会改变历史告警的归并语义）
func (s *RuleStore) Upsert(rule *model.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rule
	stored.Conditions = append([]model.Condition(nil), rule.Conditions...)
	stored.Notify = append([]string(nil), rule.Notify...)

	if existing, ok := s.rules[rule.ID]; ok {
		if existing.PrimaryCategory() != stored.PrimaryCategory() {
			return &model.ValidationError{
				Field:  "conditions",
				Reason: "规则 " + rule.ID + " 已存在且违规类别不同，请新建规则",
			}
		}
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()

	// 存入新副本，已发放的快照不受影响
	s.rules[rule.ID] = &stored
	return nil
}

// Get 按ID获取规则
func (s *RuleStore) Get(ruleID string) (*model.Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[ruleID]
	if !ok {
		return nil, false
	}
	copied := *rule
	return &copied, true
}

// SetEnabled 启用/停用规则
func (s *RuleStore) SetEnabled(ruleID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[ruleID]
	if !ok {
		return model.ErrNotFound
	}

	updated := *rule
	updated.Enabled = enabled
	updated.UpdatedAt = time.Now()
	s.rules[ruleID] = &updated
	return nil
}

// SnapshotEnabled 返回启用规则的一致性快照，按规则ID升序
// 快照内规则不会被后续编辑改写，保证同一批事件看到同一套规则
func (s *RuleStore) SnapshotEnabled() []*model.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]*model.Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		if rule.Enabled {
			snapshot = append(snapshot, rule)
		}
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID < snapshot[j].ID
	})

	return snapshot
}

// List 返回全部规则，按ID升序
func (s *RuleStore) List() []*model.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules := make([]*model.Rule, 0, len(s.rules))
	for _, rule := range s.rules {
		copied := *rule
		rules = append(rules, &copied)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ID < rules[j].ID
	})

	return rules
}

// Stats 规则统计信息
func (s *RuleStore) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	enabled := 0
	for _, rule := range s.rules {
		if rule.Enabled {
			enabled++
		}
	}

	return map[string]interface{}{
		"total_rules":   len(s.rules),
		"enabled_rules": enabled,
	}
}
