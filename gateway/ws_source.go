package gateway

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// MessageHandler 接收原始入站消息。
type MessageHandler interface {
	OnRawMessage(msg []byte)
}

// WSSource 通过 websocket 订阅上游成交流。
// 只负责连接与读取；解析交给 MessageHandler（通常经 ParseTrade）。
type WSSource struct {
	Endpoint string
	Dialer   *websocket.Dialer

	symbols      []string
	onConnect    func()
	onDisconnect func(error)
}

func NewWSSource(endpoint string) *WSSource {
	return &WSSource{
		Endpoint: endpoint,
		Dialer:   websocket.DefaultDialer,
	}
}

// Subscribe 登记一个标的；需在 Run 之前调用。
func (s *WSSource) Subscribe(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol required")
	}
	s.symbols = append(s.symbols, strings.ToUpper(symbol))
	return nil
}

func (s *WSSource) OnConnect(fn func())         { s.onConnect = fn }
func (s *WSSource) OnDisconnect(fn func(error)) { s.onDisconnect = fn }

// Run 建立连接并持续读取，直到出错返回；重连策略由调用方决定。
func (s *WSSource) Run(handler MessageHandler) error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("no symbols subscribed")
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("symbols", strings.Join(s.symbols, ","))
	u.RawQuery = q.Encode()

	conn, _, err := s.Dialer.Dial(u.String(), nil)
	if err != nil {
		if s.onDisconnect != nil {
			s.onDisconnect(err)
		}
		return err
	}
	defer conn.Close()
	if s.onConnect != nil {
		s.onConnect()
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.onDisconnect != nil {
				s.onDisconnect(err)
			}
			return err
		}
		if handler != nil {
			handler.OnRawMessage(message)
		}
	}
}
