package metrics

import (
	"context"
	"time"

	"github.com/peancharoen/lcbp3-sub002/internal/model"
	"gorm.io/gorm"
)

// Collector 指标收集器
// 周期性采样数据库连接池与修订版状态分布
type Collector struct {
	db       *gorm.DB
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateDatabaseConnections(c.db)
			c.sampleRevisionStatuses()
		}
	}
}

// sampleRevisionStatuses 采样修订版状态分布
func (c *Collector) sampleRevisionStatuses() {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := c.db.WithContext(c.ctx).Model(&model.RevisionModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return
	}
	for _, r := range rows {
		SetRevisionsByStatus(r.Status, float64(r.Count))
	}
}
