package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/events"
	"github.com/kilianp07/wildfire/core/logger"
	"github.com/kilianp07/wildfire/core/metrics"
	"github.com/kilianp07/wildfire/core/model"
	"github.com/kilianp07/wildfire/core/monitoring"
	"github.com/kilianp07/wildfire/core/queue"
	"github.com/kilianp07/wildfire/core/resources"
	"github.com/kilianp07/wildfire/internal/eventbus"
)

// Result is the final state of a run.
type Result struct {
	RunID      string
	Incidents  []model.Incident
	Records    []model.DispatchRecord
	Accounting Accounting
	Resources  map[string]resources.Status
	Kinds      []resources.Kind
	Damage     DamageTable
	Policy     string
}

// Engine decides incidents one at a time against a resource pool and keeps
// the run's accounting. An Engine is one run: build a new one, with a new
// pool, for every run.
type Engine struct {
	runID  string
	pool   *resources.Pool
	damage DamageTable
	policy Policy
	logger logger.Logger

	metrics   metrics.MetricsSink
	bus       eventbus.EventBus
	store     logging.AuditStore
	observers []Observer
	window    queue.Window

	// runMu serializes Process calls so a batch is decided contiguously.
	runMu sync.Mutex
	// mu guards the fields below for concurrent readers such as Snapshot.
	mu        sync.Mutex
	acc       Accounting
	incidents []model.Incident
	records   []model.DispatchRecord
	started   time.Time
}

// NewEngine builds an engine over pool with the cheapest policy. A nil
// damage table uses the defaults and a nil logger discards output.
func NewEngine(pool *resources.Pool, damage DamageTable, log logger.Logger) (*Engine, error) {
	if pool == nil {
		return nil, fmt.Errorf("dispatch: nil resource pool")
	}
	if damage == nil {
		damage = DefaultDamageTable()
	}
	for _, sev := range model.Severities {
		if _, ok := damage[sev]; !ok {
			return nil, fmt.Errorf("%w: damage cost missing for %s", model.ErrInvalidInput, sev)
		}
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Engine{
		runID:   uuid.NewString(),
		pool:    pool,
		damage:  damage,
		policy:  CheapestPolicy{},
		logger:  log,
		metrics: metrics.NopSink{},
		window:  queue.Window{MaxSize: 16, MaxWait: 500 * time.Millisecond},
		acc:     NewAccounting(),
	}, nil
}

// RunID identifies the run in audit records, events and snapshots.
func (e *Engine) RunID() string { return e.runID }

// SetRunID overrides the generated run identifier.
func (e *Engine) SetRunID(id string) {
	if id != "" {
		e.runID = id
	}
}

// SetPolicy replaces the candidate selection policy.
func (e *Engine) SetPolicy(p Policy) {
	if p != nil {
		e.policy = p
	}
}

// SetMetricsSink configures where dispatch events are recorded.
func (e *Engine) SetMetricsSink(s metrics.MetricsSink) {
	if s != nil {
		e.metrics = s
	}
}

// SetBus configures the bus receiving run lifecycle events.
func (e *Engine) SetBus(b eventbus.EventBus) { e.bus = b }

// SetAuditStore configures the store used to persist dispatch records.
func (e *Engine) SetAuditStore(s logging.AuditStore) { e.store = s }

// SetWindow configures the stream ordering window used by Run.
func (e *Engine) SetWindow(w queue.Window) { e.window = w }

// AddObserver registers an observer notified after every incident.
func (e *Engine) AddObserver(o Observer) {
	if o != nil {
		e.observers = append(e.observers, o)
	}
}

// Process validates incidents, orders them and decides each one. Validation
// is all-or-nothing: a single invalid incident rejects the whole batch before
// any resource is committed.
func (e *Engine) Process(ctx context.Context, incidents []model.Incident) error {
	for i, inc := range incidents {
		if err := inc.Validate(); err != nil {
			return fmt.Errorf("dispatch: incident %d: %w", i, err)
		}
	}
	e.runMu.Lock()
	defer e.runMu.Unlock()

	ordered := queue.Order(incidents)
	e.mu.Lock()
	if e.started.IsZero() {
		e.started = time.Now()
		e.publish(events.RunStarted{RunID: e.runID, Incidents: len(ordered), Policy: e.policy.Name(), Time: e.started})
	}
	offset := len(e.incidents)
	for _, inc := range ordered {
		inc.Handled = false
		inc.AssignedResource = nil
		e.incidents = append(e.incidents, inc)
	}
	e.mu.Unlock()

	for i := range ordered {
		step := e.decide(offset + i)
		e.notify(ctx, step)
	}
	return nil
}

// decide resolves the incident at idx and applies its accounting.
func (e *Engine) decide(idx int) Step {
	start := time.Now()
	e.mu.Lock()
	inc := &e.incidents[idx]
	rec := model.DispatchRecord{
		Timestamp:  inc.OccurredAt,
		Severity:   inc.Severity,
		IncidentID: inc.ID,
	}
	name, ok := e.policy.Select(e.pool.Kinds(), inc.Severity)
	if ok && e.pool.Commit(name) {
		kind, _ := e.pool.Kind(name)
		assigned := name
		inc.Handled = true
		inc.AssignedResource = &assigned
		e.acc.addressed(inc.Severity, kind.UnitCost)
		rec.Outcome = model.OutcomeSuccess
		rec.Resource = name
		rec.Cost = kind.UnitCost
		rec.DeploymentMinutes = kind.DeploymentDuration.Minutes()
		resourceUnitsUsed.WithLabelValues(e.runID, name).Set(float64(kind.UsedUnits))
		operationalCost.Add(kind.UnitCost)
	} else {
		dmg, _ := e.damage.Cost(inc.Severity)
		inc.Handled = false
		inc.AssignedResource = nil
		e.acc.missed(inc.Severity, dmg)
		rec.Outcome = model.OutcomeMissed
		rec.DamageCost = dmg
		damageCost.Add(dmg)
	}
	e.records = append(e.records, rec)
	step := Step{
		RunID:      e.runID,
		Seq:        len(e.records),
		Incident:   cloneIncidents([]model.Incident{*inc})[0],
		Record:     rec,
		Accounting: e.acc.Clone(),
		state:      e.Snapshot,
	}
	e.mu.Unlock()

	incidentsProcessed.WithLabelValues(rec.Severity.String(), string(rec.Outcome)).Inc()
	decisionLatency.Observe(time.Since(start).Seconds())
	if rec.Succeeded() {
		e.logger.Debugw("incident addressed", map[string]any{
			"run_id": e.runID, "seq": step.Seq, "severity": rec.Severity.String(),
			"resource": rec.Resource, "cost": rec.Cost, "deployment_minutes": rec.DeploymentMinutes,
		})
	} else {
		e.logger.Debugw("incident missed", map[string]any{
			"run_id": e.runID, "seq": step.Seq, "severity": rec.Severity.String(), "damage_cost": rec.DamageCost,
		})
	}
	return step
}

// notify fans one step out to the audit store, metrics, bus and observers.
// Failures are logged and reported; they never alter the decision.
func (e *Engine) notify(ctx context.Context, step Step) {
	if e.store != nil {
		if err := e.store.Append(ctx, logging.AuditRecord{RunID: step.RunID, Seq: step.Seq, Record: step.Record}); err != nil {
			e.report(fmt.Errorf("audit append: %w", err))
		}
	}
	if err := e.metrics.RecordDispatch(metrics.DispatchEvent{RunID: step.RunID, Record: step.Record, Time: time.Now()}); err != nil {
		e.logger.Warnf("metrics sink: %v", err)
	}
	if rec, ok := e.metrics.(metrics.ResourceUsageRecorder); ok {
		kinds := e.pool.Kinds()
		usage := make([]metrics.ResourceUsage, 0, len(kinds))
		now := time.Now()
		for _, k := range kinds {
			usage = append(usage, metrics.ResourceUsage{RunID: step.RunID, Name: k.Name, Total: k.TotalUnits, Used: k.UsedUnits, Time: now})
		}
		if err := rec.RecordResourceUsage(usage); err != nil {
			e.logger.Warnf("metrics sink: %v", err)
		}
	}
	e.publish(events.IncidentProcessed{RunID: step.RunID, Seq: step.Seq, Record: step.Record})
	for _, o := range e.observers {
		if err := o.IncidentProcessed(ctx, step); err != nil {
			e.report(fmt.Errorf("observer: %w", err))
		}
	}
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) report(err error) {
	e.logger.Errorf("run %s: %v", e.runID, err)
	monitoring.CaptureException(err, map[string]string{"run_id": e.runID})
}

// Snapshot returns the current system state. It is safe to call concurrently
// with Process.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return newState(e.pool.Kinds(), e.incidents, e.damage, e.acc)
}

// Accounting returns a copy of the running ledger.
func (e *Engine) Accounting() Accounting {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acc.Clone()
}

// Records returns a copy of the audit trail in decision order.
func (e *Engine) Records() []model.DispatchRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.DispatchRecord(nil), e.records...)
}

// Result returns the run's final state.
func (e *Engine) Result() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Result{
		RunID:      e.runID,
		Incidents:  cloneIncidents(e.incidents),
		Records:    append([]model.DispatchRecord(nil), e.records...),
		Accounting: e.acc.Clone(),
		Resources:  e.pool.Status(),
		Kinds:      e.pool.Kinds(),
		Damage:     e.damage.Clone(),
		Policy:     e.policy.Name(),
	}
}

// Complete closes the run: it publishes RunCompleted, records the run
// summary and notifies RunObservers. The engine must not process further
// incidents afterwards.
func (e *Engine) Complete(ctx context.Context) Result {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	res := e.Result()
	e.mu.Lock()
	started := e.started
	e.mu.Unlock()
	var dur time.Duration
	if !started.IsZero() {
		dur = time.Since(started)
	}
	acc := res.Accounting
	e.publish(events.RunCompleted{
		RunID: e.runID, Addressed: acc.Addressed(), Missed: acc.Missed(),
		OperationalCost: acc.OperationalCost, DamageCost: acc.MissedResponseCost, Duration: dur,
	})
	if rec, ok := e.metrics.(metrics.RunSummaryRecorder); ok {
		sum := metrics.RunSummary{
			RunID: e.runID, Events: acc.Addressed() + acc.Missed(), Addressed: acc.Addressed(), Missed: acc.Missed(),
			OperationalCost: acc.OperationalCost, DamageCost: acc.MissedResponseCost, Duration: dur, Time: time.Now(),
		}
		if err := rec.RecordRunSummary(sum); err != nil {
			e.logger.Warnf("metrics sink: %v", err)
		}
	}
	for _, o := range e.observers {
		if ro, ok := o.(RunObserver); ok {
			if err := ro.RunCompleted(ctx, res); err != nil {
				e.report(fmt.Errorf("observer: %w", err))
			}
		}
	}
	resourceUnitsUsed.DeletePartialMatch(prometheus.Labels{"run_id": e.runID})
	e.logger.Infow("run completed", map[string]any{
		"run_id": e.runID, "policy": res.Policy, "addressed": acc.Addressed(), "missed": acc.Missed(),
		"operational_cost": acc.OperationalCost, "damage_cost": acc.MissedResponseCost,
	})
	return res
}

// Close releases the audit store.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
