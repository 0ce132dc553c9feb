package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anomaly-engine-go/config"
	"anomaly-engine-go/detector"
	"anomaly-engine-go/gateway"
	"anomaly-engine-go/infrastructure/alert"
	"anomaly-engine-go/infrastructure/logger"
	"anomaly-engine-go/infrastructure/monitor"
	"anomaly-engine-go/market"

	"flag"
	"log"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	metricsAddr := flag.String("metricsAddr", ":9100", "Prometheus metrics 监听地址，留空则关闭")
	workers := flag.Int("workers", 4, "并行处理通道数（按标的分区）")
	alertInterval := flag.Duration("alertInterval", time.Minute, "同类告警最小间隔")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logCfg := logger.DefaultConfig()
	if cfg.Log.Level != "" {
		logCfg.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	lg, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Close()

	mon := monitor.New(monitor.DefaultConfig())
	serveMetrics(*metricsAddr, mon, lg)

	alertMgr := alert.NewManager([]alert.Channel{
		alert.NewLogChannel("stdout", os.Stdout),
	}, *alertInterval)

	pub := market.NewPublisher()
	engine := detector.New(cfg, pub, lg, mon)
	dispatcher := detector.NewDispatcher(engine, *workers, 256)
	dispatcher.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 下游消费：序列化结果并告警
	results := pub.Subscribe(256)
	go func() {
		for res := range results {
			key, value, err := gateway.EncodeAnomaly(res)
			if err != nil {
				lg.LogError(err, map[string]interface{}{"sequence": res.Event.Sequence})
				continue
			}
			lg.Info("anomaly_out",
				zap.String("key", key),
				zap.ByteString("value", value))
			_ = alertMgr.Warning("anomaly detected", map[string]interface{}{
				"symbol": res.Event.Symbol,
				"tags":   res.Tags,
			})
		}
	}()

	// 配置文件变化提示（阈值运行期只读，须重启生效）
	go func() {
		w := &config.Watcher{Path: *cfgPath}
		err := w.Start(ctx, func(config.AppConfig) {
			lg.Warn("config file changed on disk; restart to apply",
				zap.String("path", *cfgPath))
		})
		if err != nil && ctx.Err() == nil {
			lg.LogError(err, map[string]interface{}{"component": "config_watcher"})
		}
	}()

	// 上游取数，断线退避重连
	go func() {
		handler := &feedHandler{
			dispatcher: dispatcher,
			lg:         lg,
			mon:        mon,
		}
		backoff := time.Second
		for ctx.Err() == nil {
			src := gateway.NewWSSource(cfg.Feed.Endpoint)
			for _, sym := range cfg.Feed.Symbols {
				if err := src.Subscribe(sym); err != nil {
					lg.LogError(err, map[string]interface{}{"symbol": sym})
				}
			}
			src.OnConnect(func() {
				backoff = time.Second
				lg.Info("feed connected", zap.String("endpoint", cfg.Feed.Endpoint))
			})
			src.OnDisconnect(func(err error) {
				lg.Warn("feed disconnected", zap.Error(err))
			})
			if err := src.Run(handler); err != nil && ctx.Err() == nil {
				lg.LogError(err, map[string]interface{}{"component": "feed"})
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
		}
	}()

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		lg.Warn("sd_notify failed", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()
	dispatcher.Stop()
	lg.Info("detector exit")
}

// feedHandler 解析入站消息并投入调度器；畸形消息记警告后丢弃。
type feedHandler struct {
	dispatcher *detector.Dispatcher
	lg         *logger.Logger
	mon        *monitor.Monitor
}

func (h *feedHandler) OnRawMessage(msg []byte) {
	ev, err := gateway.ParseTrade(msg)
	if err != nil {
		h.mon.RecordMalformed()
		h.lg.Warn("malformed trade payload dropped", zap.Error(err))
		return
	}
	h.dispatcher.Enqueue(ev)
}

func serveMetrics(addr string, mon *monitor.Monitor, lg *logger.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", mon.Handler())
	go func() {
		lg.Info("metrics listen", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			lg.LogError(err, map[string]interface{}{"component": "metrics"})
		}
	}()
}
