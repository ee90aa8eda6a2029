package model

import (
	"fmt"
	"time"
)

// TimeWindow 授权时段（当天时刻区间，支持跨午夜，如 20:00-06:00）
type TimeWindow struct {
	Start string `json:"start" yaml:"start"` // "HH:MM"
	End   string `json:"end" yaml:"end"`     // "HH:MM"
}

// parseMinutes 解析 "HH:MM" 为当天分钟数
func parseMinutes(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("时刻格式无效: %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("时刻超出范围: %q", s)
	}
	return h*60 + m, nil
}

// Validate 校验时段是否合法（可解析且起止不同）
func (w TimeWindow) Validate() error {
	start, err := parseMinutes(w.Start)
	if err != nil {
		return err
	}
	end, err := parseMinutes(w.End)
	if err != nil {
		return err
	}
	if start == end {
		return fmt.Errorf("时段起止时刻不能相同: %s", w.Start)
	}
	return nil
}

// Contains 判断时间点是否落在授权时段内
// 起点含、终点不含；Start > End 表示跨午夜时段
func (w TimeWindow) Contains(t time.Time) bool {
	start, err := parseMinutes(w.Start)
	if err != nil {
		return false
	}
	end, err := parseMinutes(w.End)
	if err != nil {
		return false
	}

	minute := t.Hour()*60 + t.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	// 跨午夜：20:00-06:00 覆盖 [20:00, 24:00) 和 [00:00, 06:00)
	return minute >= start || minute < end
}
