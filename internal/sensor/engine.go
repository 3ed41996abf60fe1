// Package sensor implements the concurrent sensor-acquisition engine: a
// registry of monitored units driven by one background task, serving
// atomic per-unit health snapshots to the rest of the system. Grounded on
// the goroutine/ticker/mutex shape of
// cmd/building-integration/sensors.SensorManager in the teacher repo,
// adapted from N-protocol sensor polling to the fast/slow dual-cadence
// digital+analog acquisition spec.md §4.2 specifies.
package sensor

import (
	"fmt"
	"sync"
	"time"

	"github.com/ims-sentinel/sentineld/internal/hardware"
	"github.com/ims-sentinel/sentineld/internal/model"
)

// TickCounter receives a notification for every fast-cadence tick
// performed, e.g. internal/metrics.Registry.SensorTicksTotal. Optional.
type TickCounter interface {
	Inc()
}

// RegisterResult is the outcome of RegisterUnit.
type RegisterResult int

const (
	RegisterOK RegisterResult = iota
	RegisterFull
	RegisterDuplicate
)

// tickInterval is the fast-cadence polling period (spec.md §4.2: ~1kHz).
const tickInterval = time.Millisecond

// slowCadenceTicks is how many fast ticks make up one slow-cadence sample
// (spec.md §4.2: every 1000th tick, ~1s).
const slowCadenceTicks = 1000

// unitState holds a registered unit's configuration and ephemeral sampling
// counters. Fast-cadence counters are cleared on every GetHealth call;
// slow-cadence values persist across snapshots.
type unitState struct {
	id       string
	vibPin   int
	soundPin int
	tempPin  int

	vibPulseCount    int
	soundHighSamples int
	totalSamples     int

	lastTemperatureC float64
	lastCurrentA     float64
}

// Engine owns the monitored-unit registry and the background acquisition
// task. All registry access is serialized through a single mutex, per
// spec.md §5; the acquisition task releases the mutex across its inter-tick
// sleep so register/list/snapshot calls are never starved for more than one
// tick's worth of work.
type Engine struct {
	hw         hardware.Access
	thresholds model.ThresholdTable
	capacity   int

	mu       sync.Mutex
	units    map[string]*unitState
	order    []string
	slowTick int

	initOnce sync.Once
	initErr  error

	stopCh chan struct{}
	wg     sync.WaitGroup

	ticks TickCounter
}

// SetTickCounter attaches an optional counter incremented once per
// fast-cadence tick. Must be called before Init.
func (e *Engine) SetTickCounter(c TickCounter) {
	e.ticks = c
}

// New constructs an Engine. capacity bounds the registry (spec.md §4.2
// default 5-10); callers should validate capacity before calling New (see
// internal/config); a non-positive capacity passed to New is replaced by 8.
func New(hw hardware.Access, thresholds model.ThresholdTable, capacity int) *Engine {
	if capacity <= 0 {
		capacity = 8
	}
	return &Engine{
		hw:         hw,
		thresholds: thresholds,
		capacity:   capacity,
		units:      make(map[string]*unitState),
		stopCh:     make(chan struct{}),
	}
}

// Init initializes hardware access and starts the acquisition task. It is
// idempotent: subsequent calls are no-ops and return the first call's
// result, per spec.md §4.2.
func (e *Engine) Init() error {
	e.initOnce.Do(func() {
		if err := e.hw.Init(); err != nil {
			e.initErr = fmt.Errorf("sensor: hardware init: %w", err)
			return
		}
		e.wg.Add(1)
		go e.acquisitionLoop()
	})
	return e.initErr
}

// RegisterUnit adds a unit with zeroed sampling state. A full registry or a
// duplicate id leaves the registry untouched — no partial mutation ever
// occurs (spec.md §4.2 failure semantics).
func (e *Engine) RegisterUnit(unitID string, vibPin, soundPin, tempPin int) RegisterResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.units[unitID]; exists {
		return RegisterDuplicate
	}
	if len(e.units) >= e.capacity {
		return RegisterFull
	}

	e.units[unitID] = &unitState{
		id:       unitID,
		vibPin:   vibPin,
		soundPin: soundPin,
		tempPin:  tempPin,
	}
	e.order = append(e.order, unitID)
	return RegisterOK
}

// ListUnits returns registered unit identifiers in insertion order.
func (e *Engine) ListUnits() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// GetHealth evaluates and returns a unit's current health, then
// destructively resets its fast-cadence counters so the next call
// aggregates only what happened since this one. Slow-cadence values
// (temperature, current) are retained. Returns false if unitID is unknown
// — spec.md §4.2 treats this as a miss, not an error.
func (e *Engine) GetHealth(unitID string) (model.EquipmentHealth, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.units[unitID]
	if !ok {
		return model.EquipmentHealth{}, false
	}

	health := e.evaluate(u)

	u.vibPulseCount = 0
	u.soundHighSamples = 0
	u.totalSamples = 0

	return health, true
}

// evaluate computes a snapshot and status for u. Caller must hold e.mu.
func (e *Engine) evaluate(u *unitState) model.EquipmentHealth {
	var vib, snd float64
	if u.totalSamples > 0 {
		vib = float64(u.vibPulseCount) * (1000.0 / float64(u.totalSamples))
		snd = float64(u.soundHighSamples) * 100.0 / float64(u.totalSamples)
	}

	snapshot := model.SensorSnapshot{
		VibrationLevel: vib,
		SoundLevel:     snd,
		TemperatureC:   u.lastTemperatureC,
		CurrentA:       u.lastCurrentA,
		Timestamp:      time.Now(),
	}

	t := e.thresholds
	var status model.HealthStatus
	var message string
	switch {
	case vib > t.VibCrit || snd > t.SndCrit || u.lastCurrentA > t.CurCrit || u.lastTemperatureC > t.TmpCrit:
		status = model.StatusCritical
		message = model.CriticalFaultMessage
	case vib > t.VibWarn || snd > t.SndWarn || u.lastCurrentA > t.CurWarn || u.lastTemperatureC > t.TmpWarn:
		status = model.StatusWarning
	default:
		status = model.StatusHealthy
	}

	return model.EquipmentHealth{
		UnitID:   u.id,
		Status:   status,
		Snapshot: snapshot,
		Message:  message,
	}
}

// Shutdown signals the acquisition task to stop and waits for it to exit.
func (e *Engine) Shutdown() {
	select {
	case <-e.stopCh:
		// already stopped
		return
	default:
		close(e.stopCh)
	}
	e.wg.Wait()
}

// acquisitionLoop is the single background task described in spec.md
// §4.2. It holds e.mu only for the counter updates of a single tick and
// releases it across the inter-tick sleep, per spec.md §5.
func (e *Engine) acquisitionLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		e.tick()

		select {
		case <-e.stopCh:
			return
		case <-time.After(tickInterval):
		}
	}
}

// tick performs one fast-cadence pass over every registered unit, and,
// every slowCadenceTicks ticks, a slow-cadence refresh of temperature and
// current for every unit.
func (e *Engine) tick() {
	if e.ticks != nil {
		e.ticks.Inc()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.slowTick++
	doSlow := e.slowTick >= slowCadenceTicks
	if doSlow {
		e.slowTick = 0
	}

	for _, id := range e.order {
		u := e.units[id]

		if e.hw.ReadDigital(u.vibPin) == hardware.High {
			u.vibPulseCount++
		}
		if e.hw.ReadDigital(u.soundPin) == hardware.High {
			u.soundHighSamples++
		}
		u.totalSamples++

		if doSlow {
			if temp, err := e.hw.ReadTemperatureWire(u.tempPin); err == nil {
				u.lastTemperatureC = temp
			}
			if amps, err := e.hw.ReadCurrentBus(); err == nil {
				u.lastCurrentA = amps
			}
		}
	}
}
