// Package discover finds Colmi rings advertising nearby. A ring is
// recognized either by its advertised UART service or by the firmware's
// device-name prefix (R01..R0x model families).
package discover

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/srg/ringctl/internal/link"
	"github.com/srg/ringctl/internal/protocol"
	"github.com/srg/ringctl/internal/ringchan"
)

// RingNamePrefix matches the local names the ring firmware advertises, e.g.
// "R09_2D41".
const RingNamePrefix = "R0"

// RingInfo describes one discovered ring.
type RingInfo struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	RSSI        int    `json:"rssi"`
	Connectable bool   `json:"connectable"`
	LastSeen    time.Time
}

// EventType marks whether a ring was newly discovered or re-advertised.
type EventType int

const (
	EventNew EventType = iota
	EventUpdated
)

// Event is one discovery update.
type Event struct {
	Type EventType
	Ring RingInfo
}

// Options configures scanning behavior.
type Options struct {
	Duration time.Duration
	// All disables the ring filter and reports every advertiser; useful when
	// the firmware name prefix changes between model generations.
	All bool
}

// DefaultOptions returns the default scanning options.
func DefaultOptions() *Options {
	return &Options{Duration: 10 * time.Second}
}

// Scanner performs ring discovery.
type Scanner struct {
	rings  *hashmap.Map[string, RingInfo]
	events *ringchan.RingChannel[Event]
	logger *logrus.Logger
	opts   *Options
}

// NewScanner creates a ring scanner.
func NewScanner(logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{
		events: ringchan.New[Event](100),
		logger: logger,
	}
}

// Events returns a read-only stream of discovery updates. Slow consumers lose
// the oldest events, never block the scan.
func (s *Scanner) Events() <-chan Event {
	return s.events.C()
}

// Scan discovers rings for the configured duration (or until ctx ends) and
// returns a snapshot keyed by address.
func (s *Scanner) Scan(ctx context.Context, opts *Options) (map[string]RingInfo, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	s.opts = opts
	s.rings = hashmap.New[string, RingInfo]()

	s.logger.WithField("duration", opts.Duration).Info("Scanning for rings...")

	dev, err := link.DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", err)
	}
	ble.SetDefaultDevice(dev)

	scanCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	err = dev.Scan(scanCtx, false, s.handleAdvertisement)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	s.logger.WithField("ring_count", s.rings.Len()).Info("Ring scan completed")

	rings := make(map[string]RingInfo, s.rings.Len())
	s.rings.Range(func(addr string, info RingInfo) bool {
		rings[addr] = info
		return true
	})
	return rings, nil
}

// handleAdvertisement folds one advertisement into the registry.
func (s *Scanner) handleAdvertisement(adv ble.Advertisement) {
	if !s.opts.All && !IsRing(adv.LocalName(), advertisedServices(adv)) {
		return
	}

	addr := adv.Addr().String()
	info := RingInfo{
		Address:     addr,
		Name:        adv.LocalName(),
		RSSI:        adv.RSSI(),
		Connectable: adv.Connectable(),
		LastSeen:    time.Now(),
	}

	prev, existed := s.rings.Get(addr)
	if existed && info.Name == "" {
		info.Name = prev.Name
	}
	s.rings.Set(addr, info)

	event := Event{Type: EventUpdated, Ring: info}
	if !existed {
		event.Type = EventNew
		s.logger.WithFields(logrus.Fields{
			"name":    info.Name,
			"address": info.Address,
			"rssi":    info.RSSI,
		}).Info("Discovered ring")
	}
	s.events.Send(event)
}

func advertisedServices(adv ble.Advertisement) []string {
	uuids := adv.Services()
	out := make([]string, 0, len(uuids))
	for _, u := range uuids {
		out = append(out, u.String())
	}
	return out
}

// IsRing reports whether an advertiser looks like a Colmi ring: either the
// UART service is advertised or the local name carries the firmware prefix.
func IsRing(localName string, services []string) bool {
	if strings.HasPrefix(localName, RingNamePrefix) {
		return true
	}
	want := strings.ToLower(strings.ReplaceAll(protocol.ServiceUUID, "-", ""))
	for _, svc := range services {
		if strings.ToLower(strings.ReplaceAll(svc, "-", "")) == want {
			return true
		}
	}
	return false
}
