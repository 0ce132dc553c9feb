package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"anomaly-engine-go/config"
	"anomaly-engine-go/detector"
	"anomaly-engine-go/gateway"
	"anomaly-engine-go/infrastructure/logger"
	"anomaly-engine-go/market"
)

// 离线回放：把录制的 JSONL 成交流灌入引擎，逐条输出检测结果并汇总。
func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	input := flag.String("input", "", "JSONL 成交记录文件")
	quiet := flag.Bool("quiet", false, "只输出汇总，不逐条打印")
	flag.Parse()

	if *input == "" {
		log.Fatal("缺少 -input 参数")
	}
	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	engine := detector.New(cfg, nil, logger.NewNop(), nil)
	h := &replayHandler{engine: engine, quiet: *quiet, byTag: make(map[string]int)}
	if err := (gateway.FileSource{Path: *input}).Run(h); err != nil {
		log.Fatalf("回放失败: %v", err)
	}

	fmt.Printf("events=%d malformed=%d anomalies=%d\n", h.events, h.malformed, h.anomalies)
	tags := make([]string, 0, len(h.byTag))
	for tag := range h.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		fmt.Printf("  %-20s %d\n", tag, h.byTag[tag])
	}
}

type replayHandler struct {
	engine    *detector.Engine
	quiet     bool
	events    int
	malformed int
	anomalies int
	byTag     map[string]int
}

func (h *replayHandler) OnRawMessage(msg []byte) {
	h.events++
	ev, err := gateway.ParseTrade(msg)
	if err != nil {
		h.malformed++
		fmt.Fprintf(os.Stderr, "skip malformed line: %v\n", err)
		return
	}
	res := h.engine.Process(ev)
	if res == nil {
		return
	}
	h.anomalies++
	for _, tag := range res.Tags {
		h.byTag[tag]++
	}
	if !h.quiet {
		h.printResult(*res)
	}
}

func (h *replayHandler) printResult(res market.AnomalyResult) {
	key, value, err := gateway.EncodeAnomaly(res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
		return
	}
	fmt.Printf("%s\t%s\n", key, value)
}
