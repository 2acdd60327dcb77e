package container

import (
	"fmt"
	"time"

	"github.com/peancharoen/lcbp3-sub002/internal/config"
	"github.com/peancharoen/lcbp3-sub002/internal/database"
	"github.com/peancharoen/lcbp3-sub002/internal/directory"
	"github.com/peancharoen/lcbp3-sub002/internal/lock"
	"github.com/peancharoen/lcbp3-sub002/internal/notify"
	"github.com/peancharoen/lcbp3-sub002/internal/numbering"
	"github.com/peancharoen/lcbp3-sub002/internal/repository"
	"github.com/peancharoen/lcbp3-sub002/internal/service"
	"github.com/peancharoen/lcbp3-sub002/internal/workflow"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、锁、服务等
type Container struct {
	db          *gorm.DB
	redisClient *redis.Client
	lockMgr     lock.Manager
	hub         *notify.Hub
	directory   directory.Directory

	numberingCore numbering.Service
	engine        *workflow.Engine

	auditLogSvc  service.AuditLogService
	workflowSvc  service.WorkflowService
	revisionSvc  service.RevisionService
	templateSvc  service.TemplateService
	formatSvc    service.FormatService
	numberingSvc service.NumberingService

	logger *logrus.Logger
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// 1. 初始化数据库(带重试机制)
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 初始化分布式锁
	// redis 后端用于多实例部署,database 后端用于单库回落
	lockOpts := lock.Options{
		Tries:       cfg.Lock.Tries,
		RetryDelay:  time.Duration(cfg.Lock.RetryDelayMS) * time.Millisecond,
		RetryJitter: time.Duration(cfg.Lock.JitterMS) * time.Millisecond,
	}
	var redisClient *redis.Client
	var lockMgr lock.Manager
	if cfg.Lock.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		lockMgr = lock.NewRedisManager(redisClient, lockOpts, logger)
	} else {
		lockMgr = lock.NewGormManager(db, lockOpts, logger)
	}

	// 3. 目录协作方与编号核心
	dir := directory.NewGormDirectory(db)
	resolver := numbering.NewResolver(cfg.Numbering.DefaultFormat)
	numberingCore := numbering.NewService(db, lockMgr, resolver, dir, time.Duration(cfg.Lock.TTLSeconds)*time.Second, logger)

	// 4. 通知中枢与工作流状态机
	hub := notify.NewHub()
	go hub.Run()
	dispatcher := notify.NewDispatcher(hub, logger)
	engine := workflow.NewEngine(db, numberingCore, dir, dispatcher, logger)

	// 5. 应用服务
	auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	workflowSvc := service.NewWorkflowService(engine, auditLogSvc)
	revisionSvc := service.NewRevisionService(repository.NewRevisionRepository(db), auditLogSvc)
	templateSvc := service.NewTemplateService(repository.NewRoutingTemplateRepository(db), dir, auditLogSvc)
	formatSvc := service.NewFormatService(repository.NewNumberFormatRepository(db), auditLogSvc)
	numberingSvc := service.NewNumberingService(numberingCore)

	return &Container{
		db:            db,
		redisClient:   redisClient,
		lockMgr:       lockMgr,
		hub:           hub,
		directory:     dir,
		numberingCore: numberingCore,
		engine:        engine,
		auditLogSvc:   auditLogSvc,
		workflowSvc:   workflowSvc,
		revisionSvc:   revisionSvc,
		templateSvc:   templateSvc,
		formatSvc:     formatSvc,
		numberingSvc:  numberingSvc,
		logger:        logger,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Redis 获取 Redis 客户端,database 锁后端时为 nil
func (c *Container) Redis() *redis.Client {
	return c.redisClient
}

// LockManager 获取分布式锁管理器
func (c *Container) LockManager() lock.Manager {
	return c.lockMgr
}

// Hub 获取通知中枢
func (c *Container) Hub() *notify.Hub {
	return c.hub
}

// Engine 获取工作流状态机
func (c *Container) Engine() *workflow.Engine {
	return c.engine
}

// NumberingCore 获取编号签发核心服务
func (c *Container) NumberingCore() numbering.Service {
	return c.numberingCore
}

// AuditLogService 获取审计日志服务
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogSvc
}

// WorkflowService 获取工作流服务
func (c *Container) WorkflowService() service.WorkflowService {
	return c.workflowSvc
}

// RevisionService 获取修订版服务
func (c *Container) RevisionService() service.RevisionService {
	return c.revisionSvc
}

// TemplateService 获取路由模板服务
func (c *Container) TemplateService() service.TemplateService {
	return c.templateSvc
}

// FormatService 获取编号格式服务
func (c *Container) FormatService() service.FormatService {
	return c.formatSvc
}

// NumberingService 获取编号签发应用服务
func (c *Container) NumberingService() service.NumberingService {
	return c.numberingSvc
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.redisClient != nil {
		_ = c.redisClient.Close()
	}
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return nil
}
