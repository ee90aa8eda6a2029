package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 15, hour, minute, 0, 0, time.UTC)
}

func TestTimeWindowContains(t *testing.T) {
	w := TimeWindow{Start: "08:00", End: "17:00"}

	assert.True(t, w.Contains(at(8, 0)), "起点应含")
	assert.True(t, w.Contains(at(12, 30)))
	assert.False(t, w.Contains(at(17, 0)), "终点应不含")
	assert.False(t, w.Contains(at(7, 59)))
	assert.False(t, w.Contains(at(23, 0)))
}

func TestTimeWindowContainsCrossMidnight(t *testing.T) {
	// 跨午夜时段：20:00-06:00
	w := TimeWindow{Start: "20:00", End: "06:00"}

	assert.True(t, w.Contains(at(20, 0)))
	assert.True(t, w.Contains(at(23, 59)))
	assert.True(t, w.Contains(at(0, 0)))
	assert.True(t, w.Contains(at(5, 59)))
	assert.False(t, w.Contains(at(6, 0)))
	assert.False(t, w.Contains(at(12, 0)))
	assert.False(t, w.Contains(at(19, 59)))
}

func TestTimeWindowValidate(t *testing.T) {
	assert.NoError(t, TimeWindow{Start: "08:00", End: "17:00"}.Validate())
	assert.NoError(t, TimeWindow{Start: "22:00", End: "06:00"}.Validate())

	assert.Error(t, TimeWindow{Start: "8am", End: "17:00"}.Validate())
	assert.Error(t, TimeWindow{Start: "25:00", End: "17:00"}.Validate())
	assert.Error(t, TimeWindow{Start: "08:61", End: "17:00"}.Validate())
	assert.Error(t, TimeWindow{Start: "08:00", End: "08:00"}.Validate(), "起止相同应被拒绝")
}
