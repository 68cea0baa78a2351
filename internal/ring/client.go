// Package ring orchestrates full collection rounds against a Colmi R09 smart
// ring: battery query plus one real-time measurement session per requested
// metric, each on its own connection, folded into a single Result.
//
// Fault isolation is per metric: any failure inside one session degrades that
// metric to absent and never aborts the remaining metrics. Partial results
// are the expected steady state when the ring is marginally in range.
package ring

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/srg/ringctl/internal/link"
	"github.com/srg/ringctl/internal/protocol"
	"github.com/srg/ringctl/internal/ringchan"
	"github.com/srg/ringctl/internal/session"
)

// DefaultBatteryTimeout bounds the wait for a battery response frame.
const DefaultBatteryTimeout = 10 * time.Second

// ErrResponseTimeout indicates no matching response frame arrived within the
// bounded wait.
var ErrResponseTimeout = errors.New("timed out waiting for ring response")

// Options configures a Client.
type Options struct {
	BatteryTimeout time.Duration
	Session        session.Options
}

// Client runs collection rounds against one ring. The ring services a single
// measurement stream per connection, so metrics are measured strictly
// sequentially, each on a fresh link.
type Client struct {
	dialer  link.Dialer
	address string
	opts    Options
	logger  *logrus.Logger
}

// NewClient creates a client for the ring at the given address.
func NewClient(dialer link.Dialer, address string, opts Options, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	if opts.BatteryTimeout <= 0 {
		opts.BatteryTimeout = DefaultBatteryTimeout
	}
	return &Client{
		dialer:  dialer,
		address: address,
		opts:    opts,
		logger:  logger,
	}
}

// Address returns the ring's radio address.
func (c *Client) Address() string {
	return c.address
}

// CollectAll runs one collection round: battery first, then each requested
// metric in the fixed session order. A nil or empty metrics slice requests
// all seven. Every per-metric failure is logged and degrades to an absent
// value; the returned Result is complete once all requested metrics have been
// attempted. The only early exit is context cancellation.
func (c *Client) CollectAll(ctx context.Context, metrics []protocol.MeasurementType) *Result {
	if len(metrics) == 0 {
		metrics = protocol.MeasurementTypes
	}
	result := NewResult()

	level, err := c.ReadBattery(ctx)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"address": c.address,
			"error":   err,
		}).Warn("Battery measurement failed")
	} else {
		result.Set(KeyBattery, level)
	}

	for _, mt := range metrics {
		if ctx.Err() != nil {
			break
		}

		reading, outcome, err := c.Measure(ctx, mt)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"address": c.address,
				"metric":  mt.String(),
				"error":   err,
			}).Warn("Measurement failed")
			continue
		}

		c.logger.WithFields(logrus.Fields{
			"metric":       mt.String(),
			"outcome":      outcome.String(),
			"observations": reading.Observations,
		}).Debug("Measurement session finished")

		foldReading(result, mt, reading)
	}

	return result
}

// foldReading maps a session's final reading onto the result keys. A reading
// without a value leaves the metric absent.
func foldReading(result *Result, mt protocol.MeasurementType, reading session.Reading) {
	if !reading.HasValue {
		return
	}

	switch mt {
	case protocol.BloodPressure:
		// Systolic and diastolic land together or not at all.
		if reading.HasSecondary {
			result.Set(KeyBPSystolic, int(reading.Value))
			result.Set(KeyBPDiastolic, int(reading.Secondary))
		}
	case protocol.Temperature:
		result.Set(KeyTemperature, reading.Value)
	default:
		result.Set(mt.String(), int(reading.Value))
	}
}

// ReadBattery opens a link, sends the battery query, and waits (bounded) for
// the matching response frame. Malformed or unrelated frames are dropped and
// the wait continues until a valid battery response or the timeout.
func (c *Client) ReadBattery(ctx context.Context) (int, error) {
	tr, err := c.dialer.Dial(ctx, c.address)
	if err != nil {
		return 0, err
	}
	defer c.closeTransport(tr)

	frames := ringchan.New[*protocol.Frame](16)
	if err := tr.Subscribe(c.frameHandler(frames)); err != nil {
		return 0, err
	}
	defer c.unsubscribeBestEffort(tr)

	if err := tr.Write(protocol.BuildBatteryQuery().Bytes()); err != nil {
		return 0, err
	}

	timeout := time.NewTimer(c.opts.BatteryTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timeout.C:
			return 0, ErrResponseTimeout
		case frame := <-frames.C():
			if level, ok := protocol.BatteryLevel(frame); ok {
				return level, nil
			}
			// Unrelated notification; keep waiting.
		}
	}
}

// Measure runs one real-time measurement session: subscribe, START, wait for
// convergence or timeout, STOP, unsubscribe, close. STOP and unsubscribe are
// best-effort since the connection is about to be torn down either way.
func (c *Client) Measure(ctx context.Context, mt protocol.MeasurementType) (session.Reading, session.Outcome, error) {
	tr, err := c.dialer.Dial(ctx, c.address)
	if err != nil {
		return session.Reading{}, session.OutcomeCanceled, err
	}
	defer c.closeTransport(tr)

	tracker := session.NewTracker(c.opts.Session)

	err = tr.Subscribe(func(data []byte) {
		frame, derr := protocol.Decode(data)
		if derr != nil {
			// Noise on the channel; the session keeps waiting.
			c.logger.WithFields(logrus.Fields{
				"metric": mt.String(),
				"error":  derr,
			}).Debug("Dropping malformed frame")
			return
		}
		if obs, ok := protocol.DecodeObservation(frame, mt); ok {
			tracker.Observe(obs.Value, obs.Secondary, obs.HasSecondary)
		}
	})
	if err != nil {
		return session.Reading{}, session.OutcomeCanceled, err
	}
	defer c.unsubscribeBestEffort(tr)

	if err := tr.Write(protocol.BuildRealtimeStart(mt).Bytes()); err != nil {
		return session.Reading{}, session.OutcomeCanceled, err
	}

	reading, outcome := tracker.Wait(ctx)

	if err := tr.Write(protocol.BuildRealtimeStop(mt).Bytes()); err != nil {
		c.logger.WithFields(logrus.Fields{
			"metric": mt.String(),
			"error":  err,
		}).Warn("Failed to send stop frame during session teardown")
	}

	return reading, outcome, nil
}

func (c *Client) unsubscribeBestEffort(tr link.Transport) {
	if err := tr.Unsubscribe(); err != nil {
		c.logger.WithField("error", err).Warn("Failed to unsubscribe during session teardown")
	}
}

func (c *Client) closeTransport(tr link.Transport) {
	if err := tr.Close(); err != nil {
		c.logger.WithField("error", err).Warn("Failed to close link cleanly")
	}
}

// frameHandler adapts raw notification bytes into validated frames on a
// bounded queue. Malformed frames are dropped silently per the wire contract.
func (c *Client) frameHandler(frames *ringchan.RingChannel[*protocol.Frame]) func([]byte) {
	return func(data []byte) {
		frame, err := protocol.Decode(data)
		if err != nil {
			c.logger.WithField("error", err).Debug("Dropping malformed frame")
			return
		}
		frames.Send(frame)
	}
}
