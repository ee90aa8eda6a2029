package repository

import (
	"sync"
)

// EventLog 已应用事件的幂等记录
// 只有事件的全部效果落定后才标记，保证"要么全部生效要么视为未见过"
type EventLog struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewEventLog 创建事件记录
func NewEventLog() *EventLog {
	return &EventLog{
		seen: make(map[string]struct{}),
	}
}

// Seen 事件是否已被应用过
func (l *EventLog) Seen(eventID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.seen[eventID]
	return ok
}

// MarkApplied 标记事件已应用；重复标记返回 false
func (l *EventLog) MarkApplied(eventID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[eventID]; ok {
		return false
	}
	l.seen[eventID] = struct{}{}
	return true
}

// Count 已应用事件数
func (l *EventLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.seen)
}
