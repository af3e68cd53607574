package match

import (
	"context"
	"errors"
	"time"

	control "vsss-drive/closed_loop/drive_control"
	"vsss-drive/closed_loop/strategy"
	"vsss-drive/field"
	"vsss-drive/utils"
)

// Vision yields the latest field snapshot, or an error wrapping
// field.ErrNoData when there is none.
type Vision interface {
	PollField() (field.FieldSnapshot, error)
}

// Referee yields the latest referee status.
type Referee interface {
	PollReferee() (field.RefereeStatus, error)
}

// Observer receives a report after every tick. It must not block.
type Observer interface {
	OnTick(report TickReport)
}

// TickReport describes what one tick saw and did.
type TickReport struct {
	Tick       uint64                 `json:"tick"`
	Time       time.Time              `json:"time"`
	Phase      Phase                  `json:"phase"`
	Referee    field.RefereeStatus    `json:"referee"`
	RefereeOK  bool                   `json:"referee_ok"`
	VisionOK   bool                   `json:"vision_ok"`
	Snapshot   field.FieldSnapshot    `json:"snapshot"`
	Objectives []field.Objective      `json:"objectives,omitempty"`
	Commands   []control.WheelCommand `json:"commands"`
	Failures   int                    `json:"failures"`
}

// RunnerConfig holds loop timing and the color we play under.
type RunnerConfig struct {
	Cycle time.Duration
	Team  field.TeamColor
}

// Runner is the match loop: poll referee, poll vision, decide, dispatch.
// It is single threaded; Step must not be called concurrently.
type Runner struct {
	cfg      RunnerConfig
	log      *utils.Logger
	vision   Vision
	referee  Referee
	actuator Actuator
	assigner strategy.Assigner
	ctrl     *control.DiffDriveController
	observer Observer

	tick       uint64
	phase      Phase
	visionDown bool
	refDown    bool
	started    bool
}

func NewRunner(cfg RunnerConfig, vision Vision, referee Referee, actuator Actuator,
	assigner strategy.Assigner, ctrl *control.DiffDriveController, log *utils.Logger) *Runner {
	if cfg.Cycle <= 0 {
		cfg.Cycle = 16 * time.Millisecond
	}
	return &Runner{
		cfg:      cfg,
		log:      log,
		vision:   vision,
		referee:  referee,
		actuator: actuator,
		assigner: assigner,
		ctrl:     ctrl,
	}
}

// SetObserver installs o to receive tick reports; nil removes it.
func (r *Runner) SetObserver(o Observer) {
	r.observer = o
}

// Phase is the phase of the last tick.
func (r *Runner) Phase() Phase {
	return r.phase
}

// Ticks is the number of ticks run so far.
func (r *Runner) Ticks() uint64 {
	return r.tick
}

// Step runs exactly one tick. Collaborator failures never abort it: a
// silent referee counts as a stoppage and missing vision while running
// stops the robots.
func (r *Runner) Step(ctx context.Context) TickReport {
	r.tick++
	rep := TickReport{Tick: r.tick, Time: time.Now()}

	ref, err := r.referee.PollReferee()
	rep.RefereeOK = err == nil
	if err != nil {
		ref = field.StoppedStatus()
	}
	r.noteFeed("referee", &r.refDown, err)

	snap, err := r.vision.PollField()
	rep.VisionOK = err == nil
	r.noteFeed("vision", &r.visionDown, err)

	snap.Referee = ref
	rep.Referee = ref
	rep.Snapshot = snap
	rep.Phase = PhaseOf(ref)
	r.notePhase(rep.Phase, ref)

	switch {
	case rep.Phase == Running && rep.VisionOK:
		objectives := strategy.Complete(snap, r.assigner.Assign(snap))
		rep.Objectives = objectives
		rep.Commands = r.ctrl.UpdateAll(snap.Ours, objectives)
	default:
		rep.Commands = StopCommands()
	}

	rep.Failures = SendAll(ctx, r.actuator, rep.Commands, r.log)

	if r.log.Enabled(utils.TRACE) {
		for _, c := range rep.Commands {
			r.log.Trace("tick=%d robot=%d left=%.2f right=%.2f", r.tick, c.Index, c.Left, c.Right)
		}
	}
	if rep.Phase == Running && rep.VisionOK && r.tick%100 == 0 {
		for i := 0; i < field.NumRobots; i++ {
			d := r.ctrl.GetDiagnostics(i)
			r.log.Debug("robot=%d err=%.3f P=%.2f D=%.2f out=%.2f reversed=%t",
				i, d.Error, d.P, d.D, d.ErrorSpeed, d.Reversed)
		}
	}

	if r.observer != nil {
		r.observer.OnTick(rep)
	}
	return rep
}

// Run ticks every cycle until ctx is done, then stops all robots. It
// returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Starting match loop: cycle=%s robots=%d", r.cfg.Cycle, field.NumRobots)

	ticker := time.NewTicker(r.cfg.Cycle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			StopAll(stopCtx, r.actuator, r.log)
			cancel()
			r.log.Info("Match loop stopped. ticks=%d", r.tick)
			return ctx.Err()
		case <-ticker.C:
			r.Step(ctx)
		}
	}
}

func (r *Runner) notePhase(p Phase, ref field.RefereeStatus) {
	if r.started && p == r.phase {
		return
	}
	if r.started {
		r.log.Info("Phase %s -> %s (interrupt=%s foul=%s against_us=%t quadrant=%d)",
			r.phase, p, ref.Interrupt, ref.FoulColor, ref.FoulIsOurs(r.cfg.Team), ref.Quadrant)
	} else {
		r.log.Info("Phase %s (interrupt=%s)", p, ref.Interrupt)
	}
	r.phase = p
	r.started = true
}

// noteFeed logs only when a feed goes down or comes back.
func (r *Runner) noteFeed(name string, down *bool, err error) {
	switch {
	case err != nil && !*down:
		*down = true
		if errors.Is(err, field.ErrNoData) {
			r.log.Warn("%s: no data, holding robots", name)
		} else {
			r.log.Warn("%s: %v", name, err)
		}
	case err == nil && *down:
		*down = false
		r.log.Info("%s: data resumed", name)
	}
}
