package main

import (
	"context"
	"time"

	"signer-core/internal/activity"
	"signer-core/internal/apps"
	"signer-core/internal/handler"
	"signer-core/internal/model"
	"signer-core/internal/provider"
	"signer-core/internal/server"
	"signer-core/internal/service"
	"signer-core/internal/service/mq"
	"signer-core/internal/service/observer"
	"signer-core/internal/signer"
	"signer-core/internal/wallet"
	"signer-core/internal/worker"
	"signer-core/internal/worker/tasks"
	"signer-core/pkg/cache"
	"signer-core/pkg/config"
	"signer-core/pkg/database"
	"signer-core/pkg/logger"
	"signer-core/pkg/safe_random"
	"signer-core/pkg/utils/lock"
	"signer-core/pkg/validator"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 0. 初始化 Config
	config.Init()
	cfg := config.Global

	// 1. 初始化 Logger
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	if err := validator.Init(); err != nil {
		logger.Fatal("注册校验规则失败", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. 应用实例注册表
	registry, err := apps.FromConfig(cfg.Apps)
	if err != nil {
		logger.Fatal("加载应用实例失败", zap.Error(err))
	}

	// 3. 钱包提供方 + 轮询
	web3, err := provider.FromConfig(ctx, cfg.Wallet)
	if err != nil {
		logger.Fatal("初始化钱包提供方失败", zap.Error(err))
	}
	defer web3.Close()

	walletCtx := wallet.NewContext(wallet.Base(web3.Info))
	var poller *wallet.Poller
	if web3.Provider != nil {
		poller = wallet.NewPoller(web3.Provider, web3.Info,
			wallet.WithInterval(cfg.Wallet.PollInterval),
			wallet.WithLogger(logger.Named("poller")),
		)
		walletCtx.Attach(poller)
		poller.Start(ctx)
	} else {
		logger.Warn("未配置钱包提供方，签名功能不可用")
	}

	// 4. 存储: PostgreSQL (可选) 或内存
	var db *gorm.DB
	var store activity.Store = activity.NewMemoryStore()
	if cfg.DB.Enabled {
		db, err = database.ConnectPostgres(database.DSN(cfg.DB), cfg.App.Env)
		if err != nil {
			logger.Fatal("数据库连接失败", zap.Error(err))
		}
		if cfg.App.Env == "development" {
			logger.Info("开发环境: 自动迁移 Schema (GORM AutoMigrate)...")
			if err := db.AutoMigrate(model.AllModels()...); err != nil {
				logger.Fatal("数据库自动迁移失败", zap.Error(err))
			}
		}
		store = activity.NewGormStore(db)
	}

	// 5. Redis / 消息队列 / 缓存。未配置 redis 时以单机模式运行
	var (
		rdb      *redis.Client
		producer mq.Producer
		consumer mq.Consumer
		enqueuer activity.Enqueuer
		locker   lock.DistributedLock
		c        cache.Cache = cache.NewMemoryCache(cfg.Worker.CacheTTL, 10*time.Minute)
	)
	if cfg.Redis.Addr != "" {
		rdb, err = database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Redis 连接失败", zap.Error(err))
		}
		c = cache.NewMultiLevelCache(c, cache.NewRedisCache(rdb))
		locker = lock.NewRedisLock(rdb)

		if cfg.Redis.MQType == "kafka" {
			logger.Info("使用 Kafka 作为消息队列...")
			producer = mq.NewKafkaProducer(cfg.Kafka.Brokers)
			consumer = mq.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Worker.Group)
		} else {
			logger.Info("使用 Redis Streams 作为消息队列...")
			producer = mq.NewRedisProducer(rdb, 10000)
			consumer = mq.NewRedisConsumer(rdb, cfg.Worker.Group, consumerName())
		}
	} else {
		logger.Info("未配置 Redis，使用进程内消息队列")
		broker := mq.NewMemoryBroker()
		producer, consumer = broker, broker
	}

	// 6. 异步通知任务 (依赖 Redis)
	var taskServer *worker.Server
	var taskClient *worker.Client
	if rdb != nil {
		opt := worker.RedisOpt(cfg.Redis)
		taskClient = worker.NewClient(opt)
		enqueuer = taskClient
		taskServer = worker.NewServer(opt, cfg.Worker.Concurrency, tasks.NewNotifyHandler(store, producer))
		if err := taskServer.Start(); err != nil {
			logger.Fatal("Worker Server 启动失败", zap.Error(err))
		}
	}

	// 7. 活动记录
	feed := activity.NewFeed(store, producer, enqueuer,
		activity.WithTopic(cfg.Activity.Topic),
		activity.WithLogger(logger.Named("activity")),
	)

	// 8. 签名面板
	panel := signer.NewPanel(walletCtx, web3.Signer, registry,
		signer.WithAutoCloseDelay(cfg.Signer.AutoCloseDelay),
		signer.WithExpectedNetwork(cfg.Wallet.ExpectedNetwork),
		signer.WithLogger(logger.Named("signer")),
		signer.WithOnTransactionSuccess(func(tx signer.TransactionPayload) {
			account := walletCtx.Current().Account
			if account == nil {
				return
			}
			app, _ := registry.FindByAddress(tx.To)
			if _, err := feed.RecordTransaction(context.Background(), *account, tx, app.Name); err != nil {
				logger.Error("记录交易活动失败", zap.Error(err))
			}
		}),
		signer.WithOnMsgSignSuccess(func(bag *signer.SignatureBag) {
			account := walletCtx.Current().Account
			if account == nil {
				return
			}
			if _, err := feed.RecordMessage(context.Background(), *account, bag); err != nil {
				logger.Error("记录签名活动失败", zap.Error(err))
			}
		}),
	)

	// 9. 应用实例 Worker
	pool := worker.NewPool(logger.Named("pool"))
	factory := worker.NewAppWorkerFactory(ctx, c, consumer, cfg.Worker.CacheTTL, logger.Named("app-worker"))
	for _, app := range registry.List() {
		conn, w := factory(app)
		pool.AddWorker(app, conn, w)
	}

	// 10. 应用合约日志扫描 -> 事件主题 -> AppWorker
	var appObserver *observer.AppObserver
	if cfg.Observer.Enabled && web3.Chain != nil {
		opts := []observer.Opt{
			observer.WithInterval(cfg.Observer.Interval),
			observer.WithBatchSize(cfg.Observer.BatchSize),
			observer.WithLogger(logger.Named("observer")),
		}
		if cfg.Observer.StartBlock > 0 {
			opts = append(opts, observer.WithStartBlock(cfg.Observer.StartBlock))
		}
		appObserver = observer.NewAppObserver(web3.Chain, registry, producer, opts...)
		appObserver.Start(ctx)
	}

	// 11. 定时清理
	cronService := service.NewCronService(locker, feed, cfg.Activity.PruneCron, cfg.Activity.Retention)
	if err := cronService.Start(); err != nil {
		logger.Fatal("定时任务启动失败", zap.Error(err))
	}

	// 12. HTTP
	r := server.NewHTTPRouter(server.Handlers{
		Wallet:   handler.NewWalletHandler(walletCtx, cfg.Wallet.ExpectedNetwork),
		Signer:   handler.NewSignerHandler(panel, registry, cfg.Signer.RequestTimeout),
		Workers:  handler.NewWorkerHandler(pool, registry, factory),
		Activity: handler.NewActivityHandler(feed),
	})
	app := server.New(server.Config{HttpPort: cfg.App.HttpPort}, r)

	// 退出时按逆序执行
	app.OnShutdown(func(ctx context.Context) {
		if rdb != nil {
			rdb.Close()
		}
		if db != nil {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
	})
	app.OnShutdown(func(ctx context.Context) {
		producer.Close()
		consumer.Close()
		if taskClient != nil {
			taskClient.Close()
		}
	})
	app.OnShutdown(func(ctx context.Context) {
		if taskServer != nil {
			taskServer.Stop()
		}
	})
	app.OnShutdown(func(ctx context.Context) {
		cronService.Stop()
		if appObserver != nil {
			appObserver.Stop()
		}
		pool.UnsubscribeAll()
		panel.Close()
		if poller != nil {
			poller.Stop()
		}
		cancel()
	})

	// 运行 (阻塞)
	app.Run()
	logger.Info("系统已退出")
}

// consumerName 每个实例独立的消费者名称
func consumerName() string {
	suffix, err := safe_random.GenerateRandomHexString(4)
	if err != nil {
		return "signer-0"
	}
	return "signer-" + suffix
}
