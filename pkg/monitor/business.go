package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 业务监控指标，包初始化时注册到默认 Registry
var (
	// WalletPollCycles 钱包轮询周期数
	WalletPollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_poll_cycles_total",
		Help: "The total number of wallet poll cycles",
	})
	// WalletPollFailures 轮询失败 (回退到断开状态) 次数
	WalletPollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_poll_failures_total",
		Help: "The total number of poll cycles that fell back to the disconnected snapshot",
	})
	// WalletPollSkipped 上一轮未结束而跳过的 tick
	WalletPollSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_poll_skipped_total",
		Help: "Ticks skipped because the previous poll cycle had not settled",
	})
	// WalletSnapshotChanges 钱包快照变更次数
	WalletSnapshotChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_snapshot_changes_total",
		Help: "The total number of wallet snapshot changes emitted",
	})
	// WalletConnected 当前是否连接 (0/1)
	WalletConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_connected",
		Help: "Whether a wallet account is currently connected",
	})

	// SignRequestsTotal 收到的签名请求 (kind: transaction/message)
	SignRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signer_requests_total",
		Help: "The total number of sign requests received",
	}, []string{"kind"})
	// SignResultsTotal 签名结果 (kind, result: success/error)
	SignResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signer_results_total",
		Help: "The total number of settled sign attempts",
	}, []string{"kind", "result"})
	// SignDuration 签名耗时
	SignDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "signer_sign_duration_seconds",
		Help:    "Duration of sign attempts, provider round-trips included",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// WorkersActive 当前注册的 Worker 数量
	WorkersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "signer_workers_active",
		Help: "Number of registered app workers",
	})
	// WorkerTeardownsTotal Worker 拆除次数 (mode: plain/clear_cache/bulk)
	WorkerTeardownsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signer_worker_teardowns_total",
		Help: "The total number of worker teardowns",
	}, []string{"mode"})

	// ActivitiesTotal 活动记录数 (kind)
	ActivitiesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "signer_activities_total",
		Help: "The total number of recorded activities",
	}, []string{"kind"})
)
