// Package metrics exports the live projectile state and run counters to
// Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opd-ai/go-trajectory/pkg/event"
	"github.com/opd-ai/go-trajectory/pkg/sim"
)

// Collector holds the simulator's metrics. It implements sim.Observer.
type Collector struct {
	position  *prometheus.GaugeVec
	velocity  *prometheus.GaugeVec
	speed     prometheus.Gauge
	simTime   prometheus.Gauge
	runID     prometheus.Gauge
	frames    prometheus.Counter
	steps     prometheus.Counter
	started   prometheus.Counter
	cancelled prometheus.Counter
	finished  *prometheus.CounterVec

	subscriptions []*event.Subscription
}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		position: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trajectory_position_meters",
			Help: "Current projectile position in simulation units",
		}, []string{"axis"}),
		velocity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trajectory_velocity_mps",
			Help: "Current projectile velocity components",
		}, []string{"axis"}),
		speed:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "trajectory_speed_mps", Help: "Speed shown in the readout"}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{Name: "trajectory_sim_time_seconds", Help: "Simulated time of the current run"}),
		runID:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "trajectory_run_id", Help: "Id of the most recent run"}),
		frames:  prometheus.NewCounter(prometheus.CounterOpts{Name: "trajectory_frames_total", Help: "Frames rendered"}),
		steps:   prometheus.NewCounter(prometheus.CounterOpts{Name: "trajectory_steps_total", Help: "Integrator steps taken"}),
		started: prometheus.NewCounter(prometheus.CounterOpts{Name: "trajectory_runs_started_total", Help: "Runs started"}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trajectory_runs_cancelled_total",
			Help: "Runs cancelled before termination",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trajectory_runs_terminated_total",
			Help: "Runs that landed or left the canvas",
		}, []string{"reason"}),
	}

	collectors := []prometheus.Collector{
		c.position, c.velocity, c.speed, c.simTime, c.runID,
		c.frames, c.steps, c.started, c.cancelled, c.finished,
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveFrame records the state after a rendered frame.
func (c *Collector) ObserveFrame(s sim.Snapshot, steps int) {
	c.position.WithLabelValues("x").Set(s.State.Position.X)
	c.position.WithLabelValues("y").Set(s.State.Position.Y)
	c.velocity.WithLabelValues("x").Set(s.State.Velocity.X)
	c.velocity.WithLabelValues("y").Set(s.State.Velocity.Y)
	c.speed.Set(s.Speed)
	c.simTime.Set(s.SimTime)
	c.frames.Inc()
	c.steps.Add(float64(steps))
}

// Attach counts run lifecycle events published on bus.
func (c *Collector) Attach(bus *event.Bus) {
	c.subscriptions = append(c.subscriptions,
		bus.Subscribe(event.RunStarted, c.handleRunEvent),
		bus.Subscribe(event.RunCancelled, c.handleRunEvent),
		bus.Subscribe(event.RunTerminated, c.handleRunEvent),
	)
}

// Detach removes the subscriptions made by Attach.
func (c *Collector) Detach() {
	for _, sub := range c.subscriptions {
		sub.Cancel()
	}
	c.subscriptions = nil
}

func (c *Collector) handleRunEvent(e event.Event) {
	re, ok := e.(*event.RunEvent)
	if !ok {
		return
	}

	switch re.GetType() {
	case event.RunStarted:
		c.started.Inc()
		c.runID.Set(float64(re.RunID))
	case event.RunCancelled:
		c.cancelled.Inc()
	case event.RunTerminated:
		c.finished.WithLabelValues(re.Reason).Inc()
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
