// Package simulation runs the force-directed layout for a dream graph.
// The engine executes one run at a time on a background goroutine and
// streams position snapshots to the registered handler; a synchronous
// mode with a reduced tick budget covers hosts that cannot spare a
// goroutine per view.
package simulation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/aggregates"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/core/valueobjects"
	"github.com/banisterious/obsidian-oneirometrics-sub001/domain/events"
	"github.com/banisterious/obsidian-oneirometrics-sub001/pkg/errors"
)

// SettleReason explains why a run stopped ticking
type SettleReason string

const (
	SettleConverged SettleReason = "converged"
	SettleTickCap   SettleReason = "tick_cap"
	SettleCancelled SettleReason = "cancelled"
)

// Snapshot is one published frame of the simulation. Seq increases
// monotonically within a run; consumers drop frames whose RunID or Seq
// is older than the last one they applied.
type Snapshot struct {
	RunID     uuid.UUID
	Seq       uint64
	Tick      int
	Positions map[string]valueobjects.Position
	Settled   bool
	Reason    SettleReason
}

// SnapshotHandler receives simulation frames. Called from the run
// goroutine, so implementations must be quick or hand off.
type SnapshotHandler func(Snapshot)

// EventPublisher receives the engine's lifecycle events
type EventPublisher interface {
	Publish(event events.DomainEvent)
}

type run struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}
}

// Engine owns the simulation lifecycle for a single view
type Engine struct {
	config    ForceConfig
	logger    *zap.Logger
	publisher EventPublisher

	mu      sync.Mutex
	current *run
}

// NewEngine creates an engine with the given tuning. The publisher may
// be nil when no event sink is wired.
func NewEngine(config ForceConfig, publisher EventPublisher, logger *zap.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{config: config, logger: logger, publisher: publisher}, nil
}

// Tune replaces the engine's force configuration. The new tuning takes
// effect on the next Start; an in-flight run keeps its parameters.
func (e *Engine) Tune(config ForceConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.config = config
	e.mu.Unlock()
	return nil
}

// Start launches a new simulation run for the graph. Any in-flight run
// is cancelled first and Start blocks until it has fully stopped, so at
// most one run mutates graph positions at a time. Returns the new run id.
func (e *Engine) Start(ctx context.Context, graph *aggregates.DreamGraph, handler SnapshotHandler) (uuid.UUID, error) {
	if graph == nil || graph.NodeCount() == 0 {
		return uuid.Nil, errors.NewValidationError("cannot simulate an empty graph")
	}
	if handler == nil {
		return uuid.Nil, errors.NewValidationError("snapshot handler is required")
	}

	e.mu.Lock()
	prev := e.current
	config := e.config

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{id: uuid.New(), cancel: cancel, done: make(chan struct{})}
	e.current = r
	e.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	e.publish(events.NewSimulationStarted(r.id.String(), graph.NodeCount(), graph.EdgeCount(), time.Now()))
	e.logger.Debug("simulation run starting",
		zap.String("run_id", r.id.String()),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()))

	go func() {
		defer close(r.done)
		defer cancel()
		e.simulate(runCtx, r.id, graph, config, config.MaxTicks, handler)
	}()

	return r.id, nil
}

// Cancel stops the in-flight run, if any, and waits for it to stop
func (e *Engine) Cancel() {
	e.mu.Lock()
	r := e.current
	e.current = nil
	e.mu.Unlock()
	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}

// RunSync executes a run on the caller's goroutine with the reduced
// sync tick budget and returns the final frame. For hosts where the
// background worker is unavailable.
func (e *Engine) RunSync(ctx context.Context, graph *aggregates.DreamGraph) (Snapshot, error) {
	if graph == nil || graph.NodeCount() == 0 {
		return Snapshot{}, errors.NewValidationError("cannot simulate an empty graph")
	}
	e.mu.Lock()
	config := e.config
	e.mu.Unlock()

	runID := uuid.New()
	var final Snapshot
	e.publish(events.NewSimulationStarted(runID.String(), graph.NodeCount(), graph.EdgeCount(), time.Now()))
	e.simulate(ctx, runID, graph, config, config.SyncTickBudget, func(s Snapshot) {
		if s.Reason != "" {
			final = s
		}
	})
	if final.Reason == SettleCancelled {
		return final, errors.NewCancelledError("simulation")
	}
	return final, nil
}

// simulate is the tick loop shared by async and sync runs
func (e *Engine) simulate(ctx context.Context, runID uuid.UUID, graph *aggregates.DreamGraph, config ForceConfig, maxTicks int, handler SnapshotHandler) {
	state := newLayoutState(graph, config)
	temperature := config.InitialTemperature
	minInterval := time.Duration(config.SnapshotMinInterval) * time.Millisecond

	var seq uint64
	var lastEmit time.Time
	streak := 0
	reason := SettleTickCap
	ticks := 0

	for tick := 1; tick <= maxTicks; tick++ {
		if ctx.Err() != nil {
			reason = SettleCancelled
			break
		}
		ticks = tick

		state.resetDisplacements()
		state.applyRepulsion()
		state.applyAttraction()
		state.applyClusterAttraction()
		state.applyChronologicalDrift()
		state.applyCentering()

		moved := state.integrate(temperature)
		temperature *= config.CoolingFactor

		if moved < config.SettleEpsilon {
			streak++
		} else {
			streak = 0
		}
		if streak >= config.SettleTicks {
			reason = SettleConverged
			break
		}

		if tick%config.SnapshotEvery == 0 && time.Since(lastEmit) >= minInterval {
			seq++
			handler(Snapshot{
				RunID:     runID,
				Seq:       seq,
				Tick:      tick,
				Positions: state.positions(),
			})
			lastEmit = time.Now()
		}
	}

	positions := state.positions()

	if reason == SettleCancelled {
		e.publish(events.NewSimulationCancelled(runID.String(), time.Now()))
		e.logger.Debug("simulation run cancelled",
			zap.String("run_id", runID.String()),
			zap.Int("ticks", ticks))
	} else {
		e.publish(events.NewSimulationSettled(runID.String(), ticks, string(reason), time.Now()))
		e.logger.Debug("simulation run settled",
			zap.String("run_id", runID.String()),
			zap.Int("ticks", ticks),
			zap.String("reason", string(reason)))
	}

	// the final frame is always delivered, but a cancelled run never
	// claims to have settled: its mid-flight layout belongs to a
	// superseded run and consumers discard it
	seq++
	handler(Snapshot{
		RunID:     runID,
		Seq:       seq,
		Tick:      ticks,
		Positions: positions,
		Settled:   reason != SettleCancelled,
		Reason:    reason,
	})
}

func (e *Engine) publish(event events.DomainEvent) {
	if e.publisher != nil {
		e.publisher.Publish(event)
	}
}
