package service

import (
	"context"
	"fmt"
	"time"

	"signer-core/pkg/logger"
	"signer-core/pkg/utils/lock"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const pruneLockKey = "cron:lock:prune_activities"

// Pruner 清理过期活动记录
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// CronService 定时任务: 清理已结束的活动记录。
// 多实例部署时通过分布式锁保证同一时刻只有一个实例执行。
type CronService struct {
	cron      *cron.Cron
	locker    lock.DistributedLock
	pruner    Pruner
	schedule  string
	retention time.Duration
}

// NewCronService locker 为 nil 时不加锁 (单实例)
func NewCronService(locker lock.DistributedLock, pruner Pruner, schedule string, retention time.Duration) *CronService {
	return &CronService{
		cron:      cron.New(),
		locker:    locker,
		pruner:    pruner,
		schedule:  schedule,
		retention: retention,
	}
}

func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.PruneActivities); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	logger.Info("Cron Service started", zap.String("prune", s.schedule))
	return nil
}

func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Cron Service stopped")
}

// PruneActivities 清理 retention 之前已结束的活动
func (s *CronService) PruneActivities() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 1. 获取分布式锁，失败说明其他实例在执行
	if s.locker != nil {
		locked, err := s.locker.Acquire(ctx, pruneLockKey, time.Minute)
		if err != nil || !locked {
			logger.Debug("PruneActivities: 获取锁失败或已有实例在运行", zap.Error(err))
			return
		}
		defer func() {
			if err := s.locker.Release(ctx, pruneLockKey); err != nil {
				logger.Warn("PruneActivities: 释放锁失败", zap.Error(err))
			}
		}()
	}

	// 2. 清理
	n, err := s.pruner.Prune(ctx, s.retention)
	if err != nil {
		logger.Error("PruneActivities failed", zap.Error(err))
		return
	}
	logger.Info("活动记录清理完成", zap.Int64("deleted", n))
}
