package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"resumelift/internal/errors"
	"resumelift/internal/resume"
	"resumelift/internal/types"
)

// SectionOptimizer is the slice of the remote gateway the optimizer
// needs.
type SectionOptimizer interface {
	OptimizeSection(ctx context.Context, req types.OptimizeSectionRequest) (*types.OptimizeSectionResponse, error)
}

// OptimizerState is the lifecycle state of an optimization session.
type OptimizerState string

const (
	OptimizerIdle        OptimizerState = "idle"
	OptimizerConfiguring OptimizerState = "configuring"
	OptimizerRunning     OptimizerState = "running"
	OptimizerCompleted   OptimizerState = "completed"
)

// Progress is the bulk optimization counter: Current is the 1-based
// index of the element whose call has begun, Total the element count.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Result summarizes a completed optimization run.
type Result struct {
	Explanation string   `json:"explanation"`
	Changes     []string `json:"changes_made"`
	Failures    []string `json:"failures,omitempty"`
}

// Optimizer is the optimization session state machine. It owns the
// undo snapshot: the addressed value is captured before any mutation,
// and Undo restores it through the store's single mutation path.
type Optimizer struct {
	mu     sync.Mutex
	store  *resume.Store
	client SectionOptimizer
	logger *errors.Logger

	state    OptimizerState
	section  resume.Section
	target   resume.Target
	snapshot any
	progress Progress
	result   *Result
}

// NewOptimizer creates an idle optimization session.
func NewOptimizer(store *resume.Store, client SectionOptimizer, logger *errors.Logger) *Optimizer {
	return &Optimizer{
		store:  store,
		client: client,
		logger: logger,
		state:  OptimizerIdle,
	}
}

// State returns the current lifecycle state.
func (o *Optimizer) State() OptimizerState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Target returns the section and target being optimized.
func (o *Optimizer) Target() (resume.Section, resume.Target) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.section, o.target
}

// Progress returns the bulk progress counter. Safe to poll while a run
// is in flight.
func (o *Optimizer) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Result returns the outcome of the last completed run, or nil.
func (o *Optimizer) Result() *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Open configures a new optimization for section/target. Rejected
// while a run is in flight.
func (o *Optimizer) Open(section resume.Section, target resume.Target) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == OptimizerRunning {
		return errors.NewConflictError(errors.ErrCodeOptimizeInProgress,
			"an optimization is already running", nil)
	}
	if !resume.Optimizable(section) {
		return errors.NewValidationError(errors.ErrCodeInvalidTarget,
			fmt.Sprintf("section %s cannot be optimized", section), nil)
	}
	if target.IsItem() && !resume.IsList(section) {
		return errors.NewValidationError(errors.ErrCodeInvalidTarget,
			fmt.Sprintf("section %s does not support item targets", section), nil)
	}
	if target.IsItem() && target.Index() < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidTarget,
			fmt.Sprintf("item index %d is negative", target.Index()), nil)
	}

	o.state = OptimizerConfiguring
	o.section = section
	o.target = target
	o.snapshot = nil
	o.result = nil
	o.progress = Progress{}
	return nil
}

// Run executes the configured optimization. The addressed value is
// snapshotted before any mutation so Undo can restore it exactly. A
// whole list-shaped section runs as a bulk: one gateway call per
// element, element failures retained in place, and a single
// whole-section write at the end.
func (o *Optimizer) Run(ctx context.Context, jobDescription, customPrompt string) (*Result, error) {
	o.mu.Lock()
	if o.state != OptimizerConfiguring {
		o.mu.Unlock()
		return nil, errors.NewConflictError(errors.ErrCodeSessionState,
			fmt.Sprintf("cannot run optimization in state %s", o.state), nil)
	}
	if !o.store.Loaded() {
		o.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeNoResume,
			"no resume loaded", nil)
	}
	if strings.TrimSpace(jobDescription) == "" {
		o.mu.Unlock()
		return nil, errors.NewValidationError(errors.ErrCodeNoJobDescription,
			"job description is required", nil)
	}

	snapshot, err := o.store.Snapshot(o.section, o.target)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	o.snapshot = snapshot
	o.state = OptimizerRunning
	section, target := o.section, o.target
	o.mu.Unlock()

	var result *Result
	if resume.IsList(section) && !target.IsItem() {
		result, err = o.runBulk(ctx, section, jobDescription, customPrompt)
	} else {
		result, err = o.runSingle(ctx, section, target, jobDescription, customPrompt)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		// Nothing was written; the session stays configurable.
		o.state = OptimizerConfiguring
		return nil, err
	}
	o.state = OptimizerCompleted
	o.result = result
	return result, nil
}

func (o *Optimizer) request(section resume.Section, target resume.Target, jobDescription, customPrompt string) (types.OptimizeSectionRequest, error) {
	payload, err := o.store.OptimizePayload(section, target)
	if err != nil {
		return types.OptimizeSectionRequest{}, err
	}
	return types.OptimizeSectionRequest{
		ResumeData:     *o.store.Document(),
		JobDescription: jobDescription,
		Section:        string(section),
		SectionData:    payload,
		CustomPrompt:   customPrompt,
	}, nil
}

// runSingle handles scalar sections and item-scoped list entries with
// exactly one gateway call.
func (o *Optimizer) runSingle(ctx context.Context, section resume.Section, target resume.Target, jobDescription, customPrompt string) (*Result, error) {
	req, err := o.request(section, target, jobDescription, customPrompt)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.OptimizeSection(ctx, req)
	if err != nil {
		return nil, err
	}
	value, err := resume.UnwrapOptimized(section, target, resp.OptimizedSection)
	if err != nil {
		return nil, err
	}
	if err := o.store.Apply(section, target, value); err != nil {
		return nil, err
	}
	return &Result{
		Explanation: resp.Explanation,
		Changes:     resp.ChangesMade,
	}, nil
}

// runBulk optimizes every element of a list section in order. Each
// element is sent as a one-element list mirroring the single-target
// payload shape. A failed element keeps its original value; the run
// continues. The rebuilt list is written once, whole-section.
func (o *Optimizer) runBulk(ctx context.Context, section resume.Section, jobDescription, customPrompt string) (*Result, error) {
	total, err := o.store.Len(section)
	if err != nil {
		return nil, err
	}

	// Optimized elements accumulate on a scratch copy so the canonical
	// document is untouched until the final whole-section write.
	scratch := resume.NewStore()
	scratch.Load(o.store.Document())

	o.mu.Lock()
	o.progress = Progress{Current: 0, Total: total}
	o.mu.Unlock()

	var changes, failures []string
	succeeded := 0
	for i := 0; i < total; i++ {
		o.mu.Lock()
		o.progress.Current = i + 1
		o.mu.Unlock()

		if ctx.Err() != nil {
			failures = append(failures, fmt.Sprintf("Item %d: %v", i+1, ctx.Err()))
			break
		}

		itemResult, err := o.runElement(ctx, scratch, section, i, jobDescription, customPrompt)
		if err != nil {
			if o.logger != nil {
				o.logger.Warn("Bulk optimization element failed, keeping original value",
					"section", section, "item", i+1, "error", err)
			}
			failures = append(failures, fmt.Sprintf("Item %d: %v", i+1, err))
			continue
		}
		succeeded++
		for _, change := range itemResult.Changes {
			changes = append(changes, fmt.Sprintf("Item %d: %s", i+1, change))
		}
	}

	rebuilt, err := scratch.Value(section, resume.WholeSection())
	if err != nil {
		return nil, err
	}
	if err := o.store.Apply(section, resume.WholeSection(), rebuilt); err != nil {
		return nil, err
	}

	return &Result{
		Explanation: fmt.Sprintf("Optimized %d of %d items in %s", succeeded, total, section),
		Changes:     changes,
		Failures:    failures,
	}, nil
}

func (o *Optimizer) runElement(ctx context.Context, scratch *resume.Store, section resume.Section, index int, jobDescription, customPrompt string) (*Result, error) {
	target := resume.ItemAt(index)
	req, err := o.request(section, target, jobDescription, customPrompt)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.OptimizeSection(ctx, req)
	if err != nil {
		return nil, err
	}
	value, err := resume.UnwrapOptimized(section, target, resp.OptimizedSection)
	if err != nil {
		return nil, err
	}
	if err := scratch.Apply(section, target, value); err != nil {
		return nil, err
	}
	return &Result{Changes: resp.ChangesMade}, nil
}

// Undo restores the pre-run snapshot through the store and returns the
// session to idle. Only valid after a completed run.
func (o *Optimizer) Undo() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != OptimizerCompleted {
		return errors.NewConflictError(errors.ErrCodeSessionState,
			fmt.Sprintf("nothing to undo in state %s", o.state), nil)
	}
	if err := o.store.Apply(o.section, o.target, o.snapshot); err != nil {
		return err
	}
	o.reset()
	return nil
}

// Close accepts the outcome and drops the undo snapshot. Applied
// values are kept; undo is no longer possible.
func (o *Optimizer) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == OptimizerRunning {
		return
	}
	o.reset()
}

func (o *Optimizer) reset() {
	o.state = OptimizerIdle
	o.section = ""
	o.target = resume.WholeSection()
	o.snapshot = nil
	o.result = nil
	o.progress = Progress{}
}
