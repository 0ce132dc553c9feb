package gateway

import (
	"bufio"
	"fmt"
	"os"
)

// FileSource 从 JSONL 文件逐行回放成交消息，用于离线重放与测试。
type FileSource struct {
	Path string
}

// Run 顺序读取每一行并交给 handler；空行跳过。
func (s FileSource) Run(handler MessageHandler) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if handler != nil {
			// scanner 复用缓冲，向下游传拷贝
			msg := make([]byte, len(line))
			copy(msg, line)
			handler.OnRawMessage(msg)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read replay file: %w", err)
	}
	return nil
}
