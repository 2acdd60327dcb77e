package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 签发的文档编号数
	numbersIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "document_numbers_issued_total",
			Help: "Total number of document numbers issued",
		},
	)

	// 编号签发失败数
	numberFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "document_number_failures_total",
			Help: "Total number of failed numbering attempts",
		},
	)

	// 分布式锁获取耗时
	lockAcquireDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "numbering_lock_acquire_duration_seconds",
			Help:    "Time spent acquiring the numbering scope lock",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// 锁获取超时数
	lockTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "numbering_lock_timeouts_total",
			Help: "Total number of lock acquisition timeouts",
		},
	)

	// 工作流转换数
	workflowTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_transitions_total",
			Help: "Total number of workflow transitions",
		},
		[]string{"action"}, // submit, approve, reject, return, forward, acknowledge
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 修订版状态分布
	revisionsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "revisions_by_status",
			Help: "Number of document revisions by status",
		},
		[]string{"status"},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(numbersIssuedTotal)
	prometheus.MustRegister(numberFailuresTotal)
	prometheus.MustRegister(lockAcquireDuration)
	prometheus.MustRegister(lockTimeoutsTotal)
	prometheus.MustRegister(workflowTransitionsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(revisionsByStatus)

	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordNumberIssued 记录编号签发成功
func RecordNumberIssued() {
	numbersIssuedTotal.Inc()
}

// RecordNumberFailure 记录编号签发失败
func RecordNumberFailure() {
	numberFailuresTotal.Inc()
}

// ObserveLockAcquire 记录锁获取耗时
func ObserveLockAcquire(seconds float64) {
	lockAcquireDuration.Observe(seconds)
}

// RecordLockTimeout 记录锁获取超时
func RecordLockTimeout() {
	lockTimeoutsTotal.Inc()
}

// RecordWorkflowTransition 记录工作流转换
func RecordWorkflowTransition(action string) {
	workflowTransitionsTotal.WithLabelValues(action).Inc()
}

// SetRevisionsByStatus 更新修订版状态分布
func SetRevisionsByStatus(status string, count float64) {
	revisionsByStatus.WithLabelValues(status).Set(count)
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.InUse))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))
	return nil
}
