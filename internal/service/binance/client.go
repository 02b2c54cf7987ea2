// Package binance implements the live MarketStream against the Binance
// kline WebSocket feed.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"CandleCast/internal/domain/models"
	drepo "CandleCast/internal/domain/repository"
	"CandleCast/pkg/logger"
)

// Client implements a MarketStream backed by the Binance kline stream.
// Only closed klines are emitted, so downstream always sees finalized
// candles.
type Client struct {
	websocketURL   string
	symbol         string
	interval       string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
	candleSeq int
}

// New creates a new Binance MarketStream.
func New(websocketURL, symbol, interval string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.MarketStream {
	return &Client{
		websocketURL:   websocketURL,
		symbol:         strings.ToLower(symbol),
		interval:       interval,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	if c.log != nil {
		c.log.Info("binance stream connected", logger.String("url", c.websocketURL))
	}
	return nil
}

// Subscribe subscribes to the configured kline stream.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("binance not connected")
	}
	stream := fmt.Sprintf("%s@kline_%s", c.symbol, c.interval)
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": []string{stream},
		"id":     1,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe %s: %w", stream, err)
	}
	if c.log != nil {
		c.log.Info("binance stream subscribed", logger.String("stream", stream))
	}
	return nil
}

type wsKline struct {
	StartTime int64  `json:"t"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

type wsMessage struct {
	Event string  `json:"e"`
	Kline wsKline `json:"k"`
}

// Read streams finalized candles and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Candle, <-chan error) {
	candles := make(chan *models.Candle, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(candles)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-kline frames
					continue
				}
				if m.Event != "kline" || !m.Kline.Closed {
					continue
				}
				candle, err := parseKline(m.Kline)
				if err != nil {
					if c.log != nil {
						c.log.Warn("binance kline parse failed", logger.Error(err))
					}
					continue
				}
				candle.Index = c.candleSeq
				c.candleSeq++
				select {
				case candles <- candle:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return candles, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }

func parseKline(k wsKline) (*models.Candle, error) {
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	var vals [5]float64
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("kline field %d: %w", i, err)
		}
		vals[i] = v
	}
	return &models.Candle{
		Timestamp: k.StartTime,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}
