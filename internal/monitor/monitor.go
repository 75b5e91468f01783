// Package monitor runs scheduled connectivity sweeps over the device
// registry. Each sweep probes every registered device through its REST
// client and, where an SNMP community is configured, cross-checks basic
// reachability over SNMP as well.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/robfig/cron/v3"

	"github.com/martinsuchenak/fortimcp/internal/audit"
	"github.com/martinsuchenak/fortimcp/internal/fortigate"
	"github.com/martinsuchenak/fortimcp/internal/log"
)

const (
	sweepTimeout = 30 * time.Second
	snmpTimeout  = 5 * time.Second

	// sysUpTimeInstance, the cheapest thing an SNMP agent will answer.
	oidSysUpTime = "1.3.6.1.2.1.1.3.0"
)

// Monitor owns the cron schedule and the sweep logic.
type Monitor struct {
	registry *fortigate.Registry
	trail    *audit.Store // may be nil
	schedule string
	cron     *cron.Cron
}

// New creates a monitor for the registry. trail may be nil when auditing
// is disabled.
func New(registry *fortigate.Registry, trail *audit.Store, schedule string) *Monitor {
	return &Monitor{
		registry: registry,
		trail:    trail,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Start registers the sweep on the cron schedule and runs the scheduler in
// the background.
func (m *Monitor) Start() error {
	if _, err := m.cron.AddFunc(m.schedule, m.Sweep); err != nil {
		return fmt.Errorf("invalid monitor schedule %q: %w", m.schedule, err)
	}
	m.cron.Start()
	log.Info("Health monitor started", "schedule", m.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (m *Monitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("Health monitor stopped")
}

// Sweep probes every registered device once. It is also invoked directly
// by the server at startup for an initial reachability report.
func (m *Monitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	for _, deviceID := range m.registry.List() {
		start := time.Now()
		ok, err := m.registry.TestConnection(ctx, deviceID)
		duration := time.Since(start)

		if ok {
			log.Debug("Health sweep: device reachable", "device_id", deviceID, "duration_ms", duration.Milliseconds())
		} else {
			log.Warn("Health sweep: device unreachable", "device_id", deviceID, "duration_ms", duration.Milliseconds())
		}

		m.record(deviceID, ok, err, duration)
		m.probeSNMP(deviceID)
	}
}

func (m *Monitor) record(deviceID string, ok bool, err error, duration time.Duration) {
	if m.trail == nil {
		return
	}

	rec := &audit.Record{
		Tool:       "health_sweep",
		DeviceID:   deviceID,
		Success:    ok,
		DurationMS: duration.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
	} else if !ok {
		rec.Error = "device unreachable"
	}
	if appendErr := m.trail.Append(rec); appendErr != nil {
		log.Error("Failed to record health sweep", "device_id", deviceID, "error", appendErr)
	}
}

// probeSNMP cross-checks reachability via SNMP when the device record
// carries a community string. Failures are logged, never fatal: SNMP is a
// secondary signal.
func (m *Monitor) probeSNMP(deviceID string) {
	client, err := m.registry.Get(deviceID)
	if err != nil {
		return
	}

	cfg := client.Config()
	if cfg.SNMPCommunity == "" {
		return
	}

	snmp := &gosnmp.GoSNMP{
		Target:    cfg.Host,
		Port:      cfg.SNMPPort,
		Community: cfg.SNMPCommunity,
		Version:   gosnmp.Version2c,
		Timeout:   snmpTimeout,
		Retries:   1,
	}

	if err := snmp.Connect(); err != nil {
		log.Warn("Health sweep: SNMP connect failed", "device_id", deviceID, "error", err)
		return
	}
	defer snmp.Conn.Close()

	result, err := snmp.Get([]string{oidSysUpTime})
	if err != nil || len(result.Variables) == 0 {
		log.Warn("Health sweep: SNMP probe failed", "device_id", deviceID, "error", err)
		return
	}

	log.Debug("Health sweep: SNMP probe ok", "device_id", deviceID, "uptime", result.Variables[0].Value)
}
