package model

import (
	"errors"
	"fmt"
)

// ErrMergeConflict 告警合并的乐观前置条件失败，可重试
var ErrMergeConflict = errors.New("告警合并冲突")

// ErrNotFound 按键查询未命中
var ErrNotFound = errors.New("记录不存在")

// ValidationError 输入校验失败，拒绝于边界处，不会部分落库
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("校验失败 [%s]: %s", e.Field, e.Reason)
}

// UnknownAssetError 事件引用了登记簿中不存在的物资
// 是否自动登记由调用方策略决定
type UnknownAssetError struct {
	AssetID string
}

func (e *UnknownAssetError) Error() string {
	return fmt.Sprintf("未知物资: %s", e.AssetID)
}

// InvalidTransitionError 非法的告警状态迁移，告警保持原状
type InvalidTransitionError struct {
	AlertID string
	From    AlertStatus
	To      AlertStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("告警 %s 不允许从 %s 迁移到 %s", e.AlertID, e.From, e.To)
}
