// Package link owns the radio-side lifecycle of one measurement session:
// establishing a retried connection to the ring, writing command frames with
// acknowledgment, and subscribing to the notification characteristic.
//
// Connections are scoped: exactly one session runs per connection, and the
// connection is released (subscription cancelled, transport closed) on every
// exit path. The ring cannot service a second session on the same connection;
// callers reconnect between measurements.
package link

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/ringctl/internal/protocol"
)

// Transport is one live connection to the ring. Implementations must be safe
// to close on every exit path; Close is idempotent.
type Transport interface {
	// Write sends a frame on the write characteristic and waits for the
	// transport-level acknowledgment.
	Write(data []byte) error

	// Subscribe registers the handler invoked for each inbound notification.
	// Only one subscription is active per transport.
	Subscribe(handler func(data []byte)) error

	// Unsubscribe deregisters the notification handler. Best-effort during
	// teardown: failures are logged by callers, not propagated.
	Unsubscribe() error

	// Close releases the transport. Idempotent.
	Close() error
}

// Dialer establishes transports. The ring client depends on this interface so
// tests can substitute a fake radio.
type Dialer interface {
	Dial(ctx context.Context, address string) (Transport, error)
}

// Default connection parameters. Eight attempts mirrors what works against
// rings that advertise intermittently at the edge of range.
const (
	DefaultConnectAttempts = 8
	DefaultConnectTimeout  = 10 * time.Second

	backoffBase = 500 * time.Millisecond
	backoffCap  = 8 * time.Second
)

// Options configures a Manager.
type Options struct {
	ConnectAttempts int           // retry ceiling per Dial, default 8
	ConnectTimeout  time.Duration // per-attempt timeout, default 10s
	WriteUUID       string        // write characteristic, defaults to the ring UART RX
	NotifyUUID      string        // notify characteristic, defaults to the ring UART TX
	ServiceUUID     string        // UART service, defaults to the ring service
}

// Manager implements Dialer over go-ble.
type Manager struct {
	opts   Options
	logger *logrus.Logger

	// dial performs a single connection attempt; overridable in tests.
	dial        func(ctx context.Context, address string) (Transport, error)
	backoffBase time.Duration
	backoffCap  time.Duration
}

// NewManager creates a link manager with the given options. Zero option
// fields fall back to defaults.
func NewManager(opts Options, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.ConnectAttempts <= 0 {
		opts.ConnectAttempts = DefaultConnectAttempts
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ServiceUUID == "" {
		opts.ServiceUUID = protocol.ServiceUUID
	}
	if opts.WriteUUID == "" {
		opts.WriteUUID = protocol.WriteUUID
	}
	if opts.NotifyUUID == "" {
		opts.NotifyUUID = protocol.NotifyUUID
	}
	m := &Manager{
		opts:        opts,
		logger:      logger,
		backoffBase: backoffBase,
		backoffCap:  backoffCap,
	}
	m.dial = m.dialOnce
	return m
}

// normalizeUUID converts a UUID string to the go-ble internal format
// (lowercase, no dashes) for comparison.
func normalizeUUID(uuid string) string {
	return strings.ToLower(strings.ReplaceAll(uuid, "-", ""))
}

// Dial connects to the ring at the given address with bounded retries and
// exponential backoff, then resolves the UART write/notify characteristics.
// It returns a *ConnectionError once the retry budget is exhausted.
func (m *Manager) Dial(ctx context.Context, address string) (Transport, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("failed to connect to ring: device address is not set")
	}

	var lastErr error
	backoff := m.backoffBase

	for attempt := 1; attempt <= m.opts.ConnectAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &ConnectionError{Address: address, Attempts: attempt - 1, Err: err}
		}

		m.logger.WithFields(logrus.Fields{
			"address": address,
			"attempt": attempt,
		}).Debug("Connecting to ring...")

		tr, err := m.dial(ctx, address)
		if err == nil {
			m.logger.WithFields(logrus.Fields{
				"address": address,
				"attempt": attempt,
			}).Info("Ring connected")
			return tr, nil
		}
		lastErr = err

		// A peripheral without the UART service is not a ring; retrying the
		// same device will not grow it the right GATT table.
		if isProtocolMismatch(err) {
			return nil, &ConnectionError{Address: address, Attempts: attempt, Err: err}
		}

		m.logger.WithFields(logrus.Fields{
			"address": address,
			"attempt": attempt,
			"error":   err,
		}).Warn("Connection attempt failed")

		if attempt < m.opts.ConnectAttempts {
			select {
			case <-ctx.Done():
				return nil, &ConnectionError{Address: address, Attempts: attempt, Err: ctx.Err()}
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > m.backoffCap {
				backoff = m.backoffCap
			}
		}
	}

	return nil, &ConnectionError{Address: address, Attempts: m.opts.ConnectAttempts, Err: lastErr}
}

func isProtocolMismatch(err error) bool {
	return errors.Is(err, ErrServiceNotFound) || errors.Is(err, ErrCharacteristicNotFound)
}

// dialOnce performs a single connect + characteristic discovery.
func (m *Manager) dialOnce(ctx context.Context, address string) (Transport, error) {
	dev, err := DeviceFactory()
	if err != nil {
		return nil, err
	}
	ble.SetDefaultDevice(dev)

	connCtx, cancel := context.WithTimeout(ctx, m.opts.ConnectTimeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(address))
	if err != nil {
		return nil, err
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		_ = client.CancelConnection()
		return nil, err
	}

	serviceUUID := m.opts.ServiceUUID
	writeUUID := m.opts.WriteUUID
	notifyUUID := m.opts.NotifyUUID

	var rx, tx *ble.Characteristic
	for _, svc := range profile.Services {
		if normalizeUUID(svc.UUID.String()) != normalizeUUID(serviceUUID) {
			continue
		}
		for _, char := range svc.Characteristics {
			switch normalizeUUID(char.UUID.String()) {
			case normalizeUUID(writeUUID):
				rx = char
			case normalizeUUID(notifyUUID):
				tx = char
			}
		}
	}
	if rx == nil && tx == nil {
		_ = client.CancelConnection()
		return nil, ErrServiceNotFound
	}
	if rx == nil || tx == nil {
		_ = client.CancelConnection()
		return nil, ErrCharacteristicNotFound
	}

	return &bleTransport{
		client: client,
		rx:     rx,
		tx:     tx,
		logger: m.logger,
	}, nil
}

// bleTransport is the go-ble backed Transport.
type bleTransport struct {
	client ble.Client
	rx     *ble.Characteristic
	tx     *ble.Characteristic
	logger *logrus.Logger

	writeMu    sync.Mutex
	closeOnce  sync.Once
	closed     bool
	closeMu    sync.Mutex
	subscribed bool
}

func (t *bleTransport) Write(data []byte) error {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return &WriteError{Err: ErrClosed}
	}
	t.closeMu.Unlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	// noRsp=false: wait for the transport-level acknowledgment.
	if err := t.client.WriteCharacteristic(t.rx, data, false); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

func (t *bleTransport) Subscribe(handler func(data []byte)) error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if err := t.client.Subscribe(t.tx, false, func(data []byte) {
		// go-ble may reuse the buffer after the callback returns.
		buf := make([]byte, len(data))
		copy(buf, data)
		handler(buf)
	}); err != nil {
		return err
	}
	t.subscribed = true
	return nil
}

func (t *bleTransport) Unsubscribe() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.closed || !t.subscribed {
		return nil
	}
	t.subscribed = false
	return t.client.Unsubscribe(t.tx, false)
}

func (t *bleTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.closeMu.Lock()
		t.closed = true
		subscribed := t.subscribed
		t.subscribed = false
		t.closeMu.Unlock()

		if subscribed {
			if uerr := t.client.Unsubscribe(t.tx, false); uerr != nil {
				// The connection is about to be torn down anyway.
				t.logger.WithField("error", uerr).Warn("Failed to unsubscribe during link teardown")
			}
		}
		err = t.client.CancelConnection()
	})
	return err
}
