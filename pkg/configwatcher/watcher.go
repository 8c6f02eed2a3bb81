package configwatcher

import (
	"path/filepath"
	"time"

	"qpgen_backend/internal/config"
	"qpgen_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchConfig 监听配置文件的写入事件，防抖一秒后重新加载并交给 reloader。
// 用于运行时切换出题后端、调整生成参数这类不值得重启进程的改动。
// 监听器起不来时只记日志降级，不影响已启动的服务
func WatchConfig(configPath string, reloader func(*config.Config)) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Log.Error("Failed to create config watcher", zap.Error(err))
		return
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		logger.Log.Error("Failed to resolve config path", zap.Error(err))
		return
	}
	if err := watcher.Add(absPath); err != nil {
		logger.Log.Error("Failed to watch config file", zap.String("path", absPath), zap.Error(err))
		return
	}

	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// 编辑器保存往往触发多次写入，合并成一次重载
			if event.Op&fsnotify.Write == fsnotify.Write {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(time.Second)
			}
		case <-debounce.C:
			newCfg, err := config.LoadConfig(filepath.Dir(absPath))
			if err != nil {
				// 配置改坏了就保留旧值继续跑
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			reloader(newCfg)
			logger.Log.Info("Configuration reloaded", zap.String("path", absPath))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
