package main

import (
	"context"
	"log"
	"os"
	"strings"

	"Memoir_Community/internal/model"
	"Memoir_Community/internal/pkg"
	"Memoir_Community/internal/repository/mysql"
	"Memoir_Community/internal/repository/redis"
	"Memoir_Community/internal/router"
	"Memoir_Community/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// .env 可选，线上用真实环境变量
	_ = godotenv.Load()

	// 驱动级超时兜底：调用方context之外再挡一层，连接挂死不会无限阻塞
	dsn := getenv("MYSQL_DSN", "user:password@tcp(127.0.0.1:3306)/memoir?charset=utf8mb4&parseTime=True&timeout=5s&readTimeout=5s&writeTimeout=5s")
	if err := mysql.InitDB(dsn); err != nil {
		panic(err)
	}

	// 连接redis
	if err := redis.Init(getenv("REDIS_ADDR", "127.0.0.1:6379"), os.Getenv("REDIS_PASSWORD"), 0); err != nil {
		panic(err)
	}
	defer redis.Close()

	// 自动建表（开发阶段 OK）
	if err := mysql.DB.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.FollowEdge{},
		&model.Entry{},
		&model.VisibilityRecord{},
		&model.SocialOutbox{},
	); err != nil {
		panic(err)
	}

	// 仓储装配
	profileRepo := &mysql.ProfileRepository{DB: mysql.DB}
	followRepo := &mysql.FollowRepository{DB: mysql.DB}
	entryRepo := &mysql.EntryRepository{DB: mysql.DB}
	visRepo := &mysql.VisibilityRepository{DB: mysql.DB}
	aggRepo := &mysql.AggregateRepository{DB: mysql.DB}
	outboxRepo := &mysql.OutboxRepository{DB: mysql.DB}
	statsCache := redis.NewStatsCacheRepository()

	rec := service.NewReconcileService(profileRepo, aggRepo, followRepo, visRepo, statsCache)
	svcs := router.Services{
		Follow:     service.NewFollowService(profileRepo, followRepo, outboxRepo, statsCache, rec),
		Profile:    service.NewProfileService(profileRepo, followRepo, visRepo, statsCache, rec),
		Visibility: service.NewVisibilityService(entryRepo, visRepo, statsCache, rec),
		Entry:      service.NewEntryService(entryRepo, visRepo, statsCache, rec),
		Reconcile:  rec,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 定时全量对账压缩漂移窗口
	go rec.Run(ctx)

	// outbox投递，kafka未配置时退化为日志
	sender := service.LogSender
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   getenv("KAFKA_TOPIC", "social-events"),
		})
		if err != nil {
			panic(err)
		}
		defer producer.Close()
		sender = producer.SendEvent
	}
	go service.NewOutboxRelayer(outboxRepo, sender).Run(ctx)

	// Gin
	r := router.InitRouter(svcs)
	if err := r.Run(getenv("HTTP_ADDR", ":8080")); err != nil {
		log.Fatal(err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
