// Package pipeline implements the appraisal orchestration state machine:
// plan the next evidence fetch, verify and merge what comes back, then
// derive a deterministic valuation and assemble the report.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/komps-labs/komps/internal/config"
	"github.com/komps-labs/komps/internal/model"
	"github.com/komps-labs/komps/internal/store"
	"github.com/komps-labs/komps/pkg/anthropic"
	"github.com/komps-labs/komps/pkg/jina"
	"github.com/komps-labs/komps/pkg/zillow"
)

// EscalationFunc decides, after each merge, whether the run must pause for
// human review. It returns the pause decision and a reason for the caller.
type EscalationFunc func(snap model.Snapshot) (bool, string)

// Result is the outcome of one pipeline invocation. Either Report is set
// (the run reached done) or Paused is true and Snapshot carries the state
// needed to resume.
type Result struct {
	RunID    string          `json:"run_id,omitempty"`
	Report   *model.Report   `json:"report,omitempty"`
	Paused   bool            `json:"paused,omitempty"`
	Reason   string          `json:"reason,omitempty"`
	Snapshot *model.Snapshot `json:"snapshot,omitempty"`
}

// Pipeline drives the appraisal state machine. All collaborators are
// injected at construction; each run carries its own state, so distinct
// runs may execute in parallel.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	zillow    zillow.Client
	jina      jina.Client
	anthropic anthropic.Client
	escalate  EscalationFunc
}

// Option configures optional pipeline behavior.
type Option func(*Pipeline)

// WithEscalation installs the human-escalation check evaluated after each
// merge step.
func WithEscalation(fn EscalationFunc) Option {
	return func(p *Pipeline) {
		p.escalate = fn
	}
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, zc zillow.Client, jc jina.Client, ac anthropic.Client, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		store:     st,
		zillow:    zc,
		jina:      jc,
		anthropic: ac,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes one appraisal from scratch. An invalid request is a caller
// error and fails immediately; evidence and narrative failures degrade per
// the error taxonomy and never abort the run.
func (p *Pipeline) Run(ctx context.Context, req model.Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return p.execute(ctx, model.Snapshot{Request: req})
}

// Resume re-enters a paused run with the caller's (possibly amended)
// snapshot. The state machine starts again at planning; progress flags in
// the snapshot keep already-satisfied branches satisfied.
func (p *Pipeline) Resume(ctx context.Context, snap model.Snapshot) (*Result, error) {
	if err := snap.Request.Validate(); err != nil {
		return nil, err
	}
	return p.execute(ctx, snap)
}

func (p *Pipeline) execute(ctx context.Context, snap model.Snapshot) (*Result, error) {
	log := zap.L().With(zap.String("address", snap.Request.Address))

	run, err := p.store.CreateRun(ctx, snap.Request)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))
	log.Info("pipeline: starting appraisal")

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}
	setStatus(model.RunStatusRunning)

	var (
		state     = model.StatePlanning
		action    model.Action
		raw       model.ToolResult
		claims    []model.Claim
		webMerged bool
		valuation model.Valuation
		drivers   []model.Driver
		report    model.Report
		prog      = Progress{WebSearched: snap.WebSearched, CompsFetched: snap.CompsFetched}
	)

	pause := func(reason string) (*Result, error) {
		snap.WebSearched = prog.WebSearched
		snap.CompsFetched = prog.CompsFetched
		result := &Result{RunID: run.ID, Paused: true, Reason: reason, Snapshot: &snap}
		if saveErr := p.store.UpdateRunResult(ctx, run.ID, model.RunStatusPaused, &model.RunResult{Paused: true, Reason: reason}); saveErr != nil {
			log.Warn("pipeline: failed to save paused result", zap.Error(saveErr))
		}
		log.Info("pipeline: paused for review", zap.String("reason", reason))
		return result, nil
	}

	for !state.IsTerminal() {
		log.Debug("pipeline: state transition", zap.String("state", string(state)))

		switch state {
		case model.StatePlanning:
			action = PlanNext(snap.Request, snap.Verified, prog)
			if action.Kind == model.ActionFinalize {
				state = model.StateValuating
			} else {
				state = model.StateFetching
			}

		case model.StateFetching:
			raw, err = p.dispatch(ctx, action)
			if err != nil {
				setStatus(model.RunStatusFailed)
				return nil, err
			}
			switch action.Kind {
			case model.ActionFetchWebSearch:
				prog.WebSearched = true
			case model.ActionFetchComps:
				prog.CompsFetched = true
			}
			state = model.StateVerifying

		case model.StateVerifying:
			claims = Verify(action, raw)
			state = model.StateMerging

		case model.StateMerging:
			accepted := Merge(&snap.Verified, claims)
			webMerged = false
			for _, f := range accepted {
				if f == model.ClaimFieldWebSearch {
					webMerged = true
				}
			}
			if p.escalate != nil {
				snap.WebSearched = prog.WebSearched
				snap.CompsFetched = prog.CompsFetched
				if needsReview, reason := p.escalate(snap); needsReview {
					return pause(reason)
				}
			}

			if webMerged && snap.Summary == nil {
				state = model.StateSummarizing
			} else {
				state = model.StatePlanning
			}

		case model.StateSummarizing:
			summary, sumErr := p.summarize(ctx, snap.Verified.WebResults)
			if sumErr != nil {
				log.Warn("pipeline: summarization failed, continuing without summary", zap.Error(sumErr))
			} else {
				snap.Summary = summary
			}
			state = model.StatePlanning

		case model.StateValuating:
			valuation, drivers = Valuate(snap.Verified, snap.Summary, p.cfg.Valuation)
			state = model.StateReporting

		case model.StateReporting:
			sections, secErr := p.writeReport(ctx, snap.Request, valuation, drivers, snap.Summary)
			if secErr != nil {
				log.Warn("pipeline: report writing failed, emitting structured report only", zap.Error(secErr))
				sections = nil
			}
			report = AssembleReport(snap.Request, valuation, drivers, snap.Summary, sections)
			state = model.StateDone
		}
	}

	result := &Result{RunID: run.ID, Report: &report}
	if saveErr := p.store.UpdateRunResult(ctx, run.ID, model.RunStatusComplete, &model.RunResult{Report: &report}); saveErr != nil {
		log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
	}

	if _, evErr := p.store.SaveEvent(ctx, model.Event{
		Type:    model.EventReportCompleted,
		ActorID: "pipeline",
		Address: snap.Request.Address,
		Payload: map[string]any{
			"run_id":    run.ID,
			"method":    valuation.Method,
			"estimate":  valuation.Estimate,
			"confident": valuation.Confident,
			"num_comps": valuation.NumComps,
		},
	}); evErr != nil {
		log.Warn("pipeline: failed to record completion event", zap.Error(evErr))
	}

	log.Info("pipeline: appraisal complete",
		zap.Bool("confident", valuation.Confident),
		zap.Int("num_comps", valuation.NumComps),
		zap.Int("drivers", len(drivers)),
	)
	return result, nil
}
