// Package mqttbroker implements ports.Broker over paho.mqtt.golang: the
// live telemetry transport for cmd/engine. It handles TLS client
// material, exponential-backoff retry of the initial connection, and the
// "no telemetry" liveness check used to detect a silent pump. A
// connection lost after startup is reported through Connected and is not
// re-established by this adapter.
package mqttbroker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/rotem-industrial/pump-pdm/internal/config"
	"github.com/rotem-industrial/pump-pdm/internal/metrics"
	"github.com/rotem-industrial/pump-pdm/ports"
)

// Broker wraps a paho client, tracking connection state and the last
// time any message was received so callers can detect a telemetry
// silence gap.
type Broker struct {
	client  mqtt.Client
	logger  *zap.Logger
	metrics *metrics.Metrics

	connected  atomic.Bool
	lastRecvMu sync.RWMutex
	lastRecv   time.Time

	disconnectAlertSec int
	notified           atomic.Bool
}

// New builds the TLS config from cfg and connects, retrying with
// doubling backoff (1s up to 60s) until the context is cancelled. m is
// optional (nil disables metric emission) and counts every failed
// connect attempt the backoff loop retries against.
func New(ctx context.Context, cfg *config.Config, clientID string, logger *zap.Logger, m *metrics.Metrics) (*Broker, error) {
	b := &Broker{logger: logger, disconnectAlertSec: cfg.MQTT.DisconnectAlertSec, metrics: m}

	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if cfg.MQTT.UseTLS {
		scheme = "ssl" // paho only applies the TLS config to ssl:// brokers
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.MQTT.Broker, cfg.MQTT.Port))
	opts.SetClientID(clientID)
	opts.SetKeepAlive(time.Duration(cfg.MQTT.Keepalive) * time.Second)
	opts.SetAutoReconnect(false) // connectWithBackoff retries the initial connect; a lost connection is not re-established
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.MQTT.UseTLS {
		tlsCfg, err := buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build mqtt tls config: %w", err)
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.SetOnConnectHandler(func(mqtt.Client) {
		b.connected.Store(true)
		b.notified.Store(false)
		b.logger.Info("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.connected.Store(false)
		b.logger.Warn("mqtt connection lost", zap.Error(err))
	})

	b.client = mqtt.NewClient(opts)
	if err := b.connectWithBackoff(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func buildTLSConfig(cfg *config.Config) (*tls.Config, error) {
	tlsCfg := &tls.Config{InsecureSkipVerify: cfg.MQTT.TLSInsecure}

	if ca, err := os.ReadFile(cfg.TLS.CACert); err == nil {
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM(ca) {
			tlsCfg.RootCAs = pool
		}
	}

	cert, err := tls.LoadX509KeyPair(cfg.TLS.ClientCert, cfg.TLS.ClientKey)
	if err == nil {
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// connectWithBackoff retries Connect with delay doubling from 1s to a
// 60s ceiling until it succeeds or ctx is cancelled.
func (b *Broker) connectWithBackoff(ctx context.Context) error {
	delay := time.Second
	const maxDelay = 60 * time.Second
	for {
		token := b.client.Connect()
		if token.WaitTimeout(10*time.Second) && token.Error() == nil {
			return nil
		}
		b.logger.Warn("mqtt connect failed, retrying", zap.Duration("backoff", delay), zap.Error(token.Error()))
		if b.metrics != nil {
			b.metrics.ReconnectTotal.Inc()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

// Subscribe implements ports.Broker. QoS 1 matches at-least-once
// delivery for telemetry (duplicates are tolerated downstream, loss is
// not).
func (b *Broker) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error {
	token := b.client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		b.lastRecvMu.Lock()
		b.lastRecv = time.Now()
		b.lastRecvMu.Unlock()
		handler(msg.Payload())
	})
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("subscribe to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return nil
}

// Publish implements ports.Broker.
func (b *Broker) Publish(ctx context.Context, topic string, payload []byte) error {
	token := b.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	return token.Error()
}

// Connected implements ports.Broker.
func (b *Broker) Connected() bool { return b.connected.Load() }

// Close implements ports.Broker.
func (b *Broker) Close() error {
	b.client.Disconnect(250)
	return nil
}

// LastMessageAge reports how long it has been since the last telemetry
// message arrived. ok is false before any message has ever arrived.
func (b *Broker) LastMessageAge() (age time.Duration, ok bool) {
	b.lastRecvMu.RLock()
	last := b.lastRecv
	b.lastRecvMu.RUnlock()
	if last.IsZero() {
		return 0, false
	}
	return time.Since(last), true
}

// SilentFor reports whether no telemetry has been received for at
// least the configured disconnect-alert window, and whether the
// caller should fire the one-shot "no telemetry" notification (armed
// again only by the on-connect handler; a fresh message does not re-arm
// it).
func (b *Broker) SilentFor() (silent bool, shouldNotify bool) {
	b.lastRecvMu.RLock()
	last := b.lastRecv
	b.lastRecvMu.RUnlock()
	if last.IsZero() {
		return false, false
	}
	silent = time.Since(last) >= time.Duration(b.disconnectAlertSec)*time.Second
	if silent && !b.notified.Load() {
		b.notified.Store(true)
		return true, true
	}
	return silent, false
}

var _ ports.Broker = (*Broker)(nil)
