// 手动清理僵死的出题任务
//
// 主应用运行时每分钟会自动清扫一次（见 internal/app 的 startBackgroundTasks），
// 此脚本用于服务未启动时手动回收，例如崩溃后想在重新拉起服务前
// 先把残留在 PROCESSING 的任务标记成 FAILED。
//
// 用法: go run scripts/fail_stale_jobs.go

package main

import (
	"log"
	"os"
	"time"

	"qpgen_backend/internal/config"
	"qpgen_backend/internal/repository"
	"qpgen_backend/pkg/database"
	"qpgen_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	after := time.Duration(cfg.Generation.StaleAfterMinutes) * time.Minute
	if after <= 0 {
		after = 30 * time.Minute
	}

	jobRepo := repository.NewGenerationJobRepository(db)

	log.Println("手动清理僵死的出题任务...")
	n, err := jobRepo.FailStale(after)
	if err != nil {
		log.Fatalf("清理失败: %v", err)
	}
	log.Printf("完成！共标记 %d 个任务为 FAILED", n)
}
