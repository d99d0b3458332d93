package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"shortlink-proxy/internal/metrics"
	"shortlink-proxy/internal/repository"
)

const maintenanceTimeout = 5 * time.Minute

// Maintenance 定时任务：刷新存量短链指标，badger 后端额外做 value log GC
type Maintenance struct {
	store  repository.Store
	logger *zap.Logger
	cron   *cron.Cron
}

func NewMaintenance(store repository.Store, logger *zap.Logger) *Maintenance {
	return &Maintenance{
		store:  store,
		logger: logger,
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}
}

// Start 按 schedule 注册任务并启动调度；schedule 为空时什么也不做
func (m *Maintenance) Start(schedule string) error {
	if schedule == "" {
		m.logger.Info("Maintenance schedule is empty, cron disabled")
		return nil
	}
	if _, err := m.cron.AddFunc(schedule, m.RunOnce); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("Maintenance cron started", zap.String("schedule", schedule))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (m *Maintenance) Stop() {
	<-m.cron.Stop().Done()
}

// RunOnce 执行一轮维护，失败只记录日志
func (m *Maintenance) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), maintenanceTimeout)
	defer cancel()

	if err := m.refreshLinkCount(ctx); err != nil {
		metrics.MaintenanceRuns.WithLabelValues("count_links", "error").Inc()
		m.logger.Error("Failed to count short links", zap.Error(err))
	} else {
		metrics.MaintenanceRuns.WithLabelValues("count_links", "ok").Inc()
	}

	gc, ok := m.store.(repository.Maintainer)
	if !ok {
		return
	}
	start := time.Now()
	if err := gc.RunGC(); err != nil {
		metrics.MaintenanceRuns.WithLabelValues("value_log_gc", "error").Inc()
		m.logger.Error("Value log GC failed", zap.Error(err))
		return
	}
	metrics.MaintenanceRuns.WithLabelValues("value_log_gc", "ok").Inc()
	m.logger.Debug("Value log GC finished", zap.Duration("took", time.Since(start)))
}

func (m *Maintenance) refreshLinkCount(ctx context.Context) error {
	links, err := m.store.List(ctx)
	if err != nil {
		return err
	}
	metrics.LinksStored.Set(float64(len(links)))
	return nil
}
