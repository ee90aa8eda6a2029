package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SiteRadar/pkg/database"
	"SiteRadar/pkg/engine"
	"SiteRadar/pkg/model"
	"SiteRadar/pkg/repository"
)

// Handlers API处理程序
// db / tsdb 为可选持久层：引擎是运行时唯一事实，写路径在引擎成功后落库
type Handlers struct {
	engine *engine.Engine
	db     *database.Postgres
	tsdb   *database.TimescaleDB
	logger *zap.Logger
}

// NewHandlers 创建新的API处理程序
func NewHandlers(eng *engine.Engine, db *database.Postgres, tsdb *database.TimescaleDB, logger *zap.Logger) *Handlers {
	return &Handlers{
		engine: eng,
		db:     db,
		tsdb:   tsdb,
		logger: logger,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck 就绪检查处理程序
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// IngestEvent 移动事件上报处理程序
func (h *Handlers) IngestEvent(c *gin.Context) {
	var event model.MovementEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	result, err := h.engine.IngestMovementEvent(c.Request.Context(), &event)
	if err != nil {
		var vErr *model.ValidationError
		var uErr *model.UnknownAssetError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.As(err, &uErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, model.ErrMergeConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
		default:
			h.logger.Error("处理移动事件失败", zap.String("event_id", event.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "处理移动事件失败"})
		}
		return
	}

	h.persistIngest(&event, result)
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// persistIngest 把上报路径的效果写入持久层（失败仅记日志，不影响响应）
func (h *Handlers) persistIngest(event *model.MovementEvent, result *model.IngestResult) {
	if result.Ignored {
		return
	}
	if h.tsdb != nil {
		if err := h.tsdb.SaveMovement(event); err != nil {
			h.logger.Warn("归档移动事件失败", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	if h.db != nil {
		for _, alert := range append(result.Created, result.Merged...) {
			persisted := alert
			if err := h.db.Alert().Save(&persisted); err != nil {
				h.logger.Warn("持久化告警失败", zap.String("alert_id", alert.ID), zap.Error(err))
			}
		}
	}
}

// UpsertRule 保存规则处理程序
func (h *Handlers) UpsertRule(c *gin.Context) {
	var rule model.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	if err := h.engine.UpsertRule(&rule); err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("保存规则失败", zap.String("rule_id", rule.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存规则失败"})
		return
	}

	if h.db != nil {
		if err := h.db.Rule().Save(&rule); err != nil {
			h.logger.Warn("持久化规则失败", zap.String("rule_id", rule.ID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
	})
}

// ListRules 规则列表处理程序
func (h *Handlers) ListRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.engine.ListRules(),
	})
}

// ListPriorityAlerts 告警分诊列表处理程序
func (h *Handlers) ListPriorityAlerts(c *gin.Context) {
	filter := repository.AlertFilter{
		Status:   model.AlertStatus(c.Query("status")),
		Zone:     c.Query("zone"),
		Severity: model.AlertSeverity(c.Query("severity")),
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit参数无效"})
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"data": h.engine.ListPriorityAlerts(filter, limit),
	})
}

// GetAlert 获取单条告警处理程序
// 内存未命中时回源持久层（历史告警可能早于本进程启动）
func (h *Handlers) GetAlert(c *gin.Context) {
	alert, ok := h.engine.GetAlert(c.Param("id"))
	if ok {
		c.JSON(http.StatusOK, gin.H{"data": alert})
		return
	}

	if h.db != nil {
		stored, err := h.db.Alert().GetByID(c.Param("id"))
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"data": stored})
			return
		}
		if !errors.Is(err, model.ErrNotFound) {
			h.logger.Error("查询告警失败", zap.String("alert_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "查询告警失败"})
			return
		}
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "告警不存在"})
}

// TransitionRequest 状态迁移请求
type TransitionRequest struct {
	Status model.AlertStatus `json:"status" binding:"required"`
}

// TransitionAlert 告警状态迁移处理程序
func (h *Handlers) TransitionAlert(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	alert, err := h.engine.TransitionAlert(c.Param("id"), req.Status)
	if err != nil {
		var tErr *model.InvalidTransitionError
		var vErr *model.ValidationError
		switch {
		case errors.Is(err, model.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "告警不存在"})
		case errors.As(err, &tErr):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("告警状态迁移失败", zap.String("alert_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "状态迁移失败"})
		}
		return
	}

	if h.db != nil {
		persisted := alert
		if err := h.db.Alert().Save(&persisted); err != nil {
			h.logger.Warn("持久化告警状态失败", zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": alert})
}

// ListZones 区域列表处理程序
func (h *Handlers) ListZones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.engine.ListZones(),
	})
}

// GetZone 获取单个区域处理程序
func (h *Handlers) GetZone(c *gin.Context) {
	zone, ok := h.engine.GetZone(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "区域不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": zone})
}

// UpsertZone 保存区域处理程序
func (h *Handlers) UpsertZone(c *gin.Context) {
	var zone model.Zone
	if err := c.ShouldBindJSON(&zone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	if err := h.engine.UpsertZone(&zone); err != nil {
		var vErr *model.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("保存区域失败", zap.String("zone_id", zone.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存区域失败"})
		return
	}

	if h.db != nil {
		if err := h.db.Zone().Save(&zone); err != nil {
			h.logger.Warn("持久化区域失败", zap.String("zone_id", zone.ID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
	})
}

// GetStats 引擎统计处理程序
func (h *Handlers) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.engine.Stats(),
	})
}

// AlertHistory 历史告警查询处理程序（持久层读路径）
// zone / severity / from+to 三种过滤方式取其一，默认最近7天
func (h *Handlers) AlertHistory(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "持久层不可用"})
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit参数无效"})
			return
		}
		limit = parsed
	}

	var (
		alerts []*model.Alert
		err    error
	)
	switch {
	case c.Query("zone") != "":
		alerts, err = h.db.Alert().GetByZone(c.Query("zone"), limit)
	case c.Query("severity") != "":
		alerts, err = h.db.Alert().GetBySeverity(model.AlertSeverity(c.Query("severity")), limit)
	default:
		from := time.Now().AddDate(0, 0, -7)
		to := time.Now()
		if raw := c.Query("from"); raw != "" {
			parsed, perr := time.Parse(time.RFC3339, raw)
			if perr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "from参数无效"})
				return
			}
			from = parsed
		}
		if raw := c.Query("to"); raw != "" {
			parsed, perr := time.Parse(time.RFC3339, raw)
			if perr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "to参数无效"})
				return
			}
			to = parsed
		}
		alerts, err = h.db.Alert().GetByTimeRange(from, to, limit)
	}
	if err != nil {
		h.logger.Error("查询历史告警失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询历史告警失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": alerts})
}

// AlertStats 违规类型统计处理程序
func (h *Handlers) AlertStats(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "持久层不可用"})
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days参数无效"})
			return
		}
		days = parsed
	}

	stats, err := h.db.Alert().GetStats(days)
	if err != nil {
		h.logger.Error("统计告警失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "统计告警失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// AssetMovements 物资移动历史处理程序
func (h *Handlers) AssetMovements(c *gin.Context) {
	if h.tsdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "持久层不可用"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit参数无效"})
			return
		}
		limit = parsed
	}

	events, err := h.tsdb.RecentMovements(c.Param("id"), limit)
	if err != nil {
		h.logger.Error("查询移动记录失败", zap.String("asset_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询移动记录失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}

// ZoneActivity 区域活跃度统计处理程序
func (h *Handlers) ZoneActivity(c *gin.Context) {
	if h.tsdb == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "持久层不可用"})
		return
	}

	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours参数无效"})
			return
		}
		hours = parsed
	}

	activity, err := h.tsdb.ZoneActivity(time.Now().Add(-time.Duration(hours) * time.Hour))
	if err != nil {
		h.logger.Error("统计区域活跃度失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "统计区域活跃度失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": activity})
}
