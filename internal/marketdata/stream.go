package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"market-structure-lab/internal/domain"
)

// StreamConfig configures the live kline stream.
type StreamConfig struct {
	// Endpoint is the websocket base endpoint.
	Endpoint string
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the per-message read deadline.
	ReadTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Endpoint:          "wss://stream.binance.com:9443/ws",
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       90 * time.Second,
	}
}

// KlineStream delivers closed candles for one asset over a websocket
// subscription, reconnecting with exponential backoff.
type KlineStream struct {
	asset  domain.Asset
	config StreamConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	out  chan domain.Candle
	done chan struct{}
	wg   sync.WaitGroup
}

// NewKlineStream connects and starts delivering closed candles on the
// returned stream's channel.
func NewKlineStream(ctx context.Context, asset domain.Asset, config *StreamConfig) (*KlineStream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &KlineStream{
		asset:  asset,
		config: cfg,
		out:    make(chan domain.Candle, 64),
		done:   make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.pingLoop()
	return s, nil
}

// Candles returns the closed-candle channel. It is closed on shutdown.
func (s *KlineStream) Candles() <-chan domain.Candle {
	return s.out
}

// Close tears the stream down and waits for its goroutines.
func (s *KlineStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.out)
	return nil
}

func (s *KlineStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	endpoint := fmt.Sprintf("%s/%s@kline_%s",
		s.config.Endpoint, strings.ToLower(s.asset.Symbol), s.asset.IntervalLabel())

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *KlineStream) readLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.reconnect()
			continue
		}

		candle, closed, err := parseKlineEvent(msg)
		if err != nil || !closed {
			continue // open candles and malformed frames are dropped
		}

		select {
		case s.out <- candle:
		case <-s.done:
			return
		}
	}
}

func (s *KlineStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
			}
			s.connMu.Unlock()
		}
	}
}

// reconnect redials with exponential backoff until success or shutdown.
func (s *KlineStream) reconnect() {
	delay := s.config.ReconnectDelay
	for {
		select {
		case <-s.done:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := s.connect(ctx)
		cancel()
		if err == nil {
			return
		}

		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

// klineEvent is the wire shape of a Binance kline stream frame.
type klineEvent struct {
	Kline struct {
		StartTime int64  `json:"t"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
		Closed    bool   `json:"x"`
	} `json:"k"`
}

func parseKlineEvent(msg []byte) (domain.Candle, bool, error) {
	var ev klineEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return domain.Candle{}, false, fmt.Errorf("decode kline event: %w", err)
	}

	fields := [5]string{ev.Kline.Open, ev.Kline.High, ev.Kline.Low, ev.Kline.Close, ev.Kline.Volume}
	var vals [5]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return domain.Candle{}, false, fmt.Errorf("parse kline event field: %w", err)
		}
		vals[i] = v
	}

	return domain.Candle{
		Timestamp: time.UnixMilli(ev.Kline.StartTime).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, ev.Kline.Closed, nil
}
