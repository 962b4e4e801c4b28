package session

import (
	"context"
	"fmt"
	"io"

	"gptxt/internal/keypress"
	"gptxt/internal/logging"
	"gptxt/internal/synth"
	"gptxt/internal/usage"

	"go.uber.org/zap"
)

// Outcome is how a session ended.
type Outcome int

const (
	// OutcomeCompleted means a candidate ran and its result was printed.
	OutcomeCompleted Outcome = iota + 1
	// OutcomeQuit means the user quit.
	OutcomeQuit
	// OutcomeNoProgress means regeneration produced an already seen candidate.
	OutcomeNoProgress
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeQuit:
		return "quit"
	case OutcomeNoProgress:
		return "no-progress"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

const (
	busyLabel       = "Generating program..."
	noProgressText  = "Re-generated program is identical to previously generated program. Please rephrase your task."
	reviewPrompt    = "Run program? ([y]es/[q]uit/[r]egen/[e]dit)"
	recoveryPrompt  = "Regenerate program and try again? ([r]egen/[q]uit/[e]dit)"
	editErrorFormat = "Error editing program: %v"
)

// Synthesizer produces candidates.
type Synthesizer interface {
	Synthesize(ctx context.Context, req synth.Request) (synth.Result, error)
}

// Executor runs a candidate against the session input.
type Executor interface {
	Execute(ctx context.Context, input, script string) (string, error)
}

// Editor lets the user edit a candidate.
type Editor interface {
	Edit(ctx context.Context, text string) (string, error)
}

// CommandReader waits for one of the accepted key commands.
type CommandReader interface {
	ReadCommand(ctx context.Context, prompt string, accepted ...keypress.Command) (keypress.Command, error)
}

// Display renders diagnostics. It never writes to the result stream.
type Display interface {
	Candidate(label, script string)
	CompletionPrompt(prompt string)
	Error(err error)
	Errorf(format string, args ...any)
	Blank()
	Prompt(msg string) string
}

// Busy shows a progress indicator until stop is called.
type Busy interface {
	Start(label string) (stop func())
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Synthesizer Synthesizer
	Executor    Executor
	Editor      Editor
	Keys        CommandReader
	Display     Display
	Busy        Busy
	// Out receives only the result of a successful run.
	Out io.Writer
}

// menu is a command prompt and where each accepted command leads.
type menu struct {
	prompt string
	accept []keypress.Command
	next   map[keypress.Command]Phase
}

var reviewMenu = menu{
	prompt: reviewPrompt,
	accept: []keypress.Command{keypress.Run, keypress.Quit, keypress.Regenerate, keypress.Edit},
	next: map[keypress.Command]Phase{
		keypress.Run:        PhaseRunning,
		keypress.Quit:       PhaseTerminated,
		keypress.Regenerate: PhaseRegenerating,
		keypress.Edit:       PhaseEditing,
	},
}

var recoveryMenu = menu{
	prompt: recoveryPrompt,
	accept: []keypress.Command{keypress.Regenerate, keypress.Quit, keypress.Edit},
	next: map[keypress.Command]Phase{
		keypress.Regenerate: PhaseRegenerating,
		keypress.Quit:       PhaseTerminated,
		keypress.Edit:       PhaseEditing,
	},
}

// State is the mutable part of a session, threaded through every step.
type State struct {
	Phase   Phase
	Current Candidate
	History History
	Outcome Outcome

	// menuPhase is the phase whose menu chose the in-flight command.
	menuPhase Phase
}

// Controller runs the session state machine.
type Controller struct {
	params Params
	deps   Deps
	log    *zap.Logger
}

// NewController creates a Controller.
func NewController(params Params, deps Deps) *Controller {
	return &Controller{
		params: params,
		deps:   deps,
		log:    logging.Get(logging.CategorySession).With(zap.String("session", params.ID.String())),
	}
}

// Run drives the session until it terminates. A returned error is fatal:
// either the completion provider failed or the key reader was interrupted.
func (c *Controller) Run(ctx context.Context) (Outcome, error) {
	st := &State{Phase: PhaseSynthesizing}
	if err := c.drive(ctx, st); err != nil {
		return 0, err
	}
	return st.Outcome, nil
}

// drive steps st until it reaches PhaseTerminated.
func (c *Controller) drive(ctx context.Context, st *State) error {
	for st.Phase != PhaseTerminated {
		next, err := c.step(ctx, st)
		if err != nil {
			return err
		}
		if !CanTransition(st.Phase, next) {
			return fmt.Errorf("invalid transition %s -> %s", st.Phase, next)
		}
		c.log.Debug("transition", zap.Stringer("from", st.Phase), zap.Stringer("to", next))
		st.Phase = next
	}
	c.log.Info("session ended", zap.Stringer("outcome", st.Outcome), zap.Int("history", st.History.Len()))
	return nil
}

func (c *Controller) step(ctx context.Context, st *State) (Phase, error) {
	switch st.Phase {
	case PhaseSynthesizing:
		return c.synthesizeFirst(ctx, st)
	case PhaseReviewing:
		c.show(st)
		st.menuPhase = PhaseReviewing
		return c.dispatch(ctx, st, reviewMenu)
	case PhaseRunning:
		return c.runCandidate(ctx, st)
	case PhaseRegenerating:
		return c.regenerate(ctx, st)
	case PhaseEditing:
		return c.edit(ctx, st)
	case PhaseRecovering:
		c.deps.Display.Blank()
		st.menuPhase = PhaseRecovering
		return c.dispatch(ctx, st, recoveryMenu)
	default:
		return st.Phase, fmt.Errorf("no step for phase %s", st.Phase)
	}
}

func (c *Controller) synthesizeFirst(ctx context.Context, st *State) (Phase, error) {
	res, err := c.synthesize(ctx, "synthesize")
	if err != nil {
		return st.Phase, err
	}
	st.History.Append(res.Candidate)
	st.Current = Candidate{Text: res.Candidate, Provenance: Generated}
	if c.params.ShowPrompt {
		c.deps.Display.CompletionPrompt(res.Prompt)
		c.deps.Display.Blank()
	}
	return PhaseReviewing, nil
}

// show displays the current candidate. The edited label lasts one display.
func (c *Controller) show(st *State) {
	c.deps.Display.Candidate(st.Current.Provenance.Label(), st.Current.Text)
	st.Current.Provenance = Generated
}

// dispatch prompts with m and maps the chosen command to the next phase.
func (c *Controller) dispatch(ctx context.Context, st *State, m menu) (Phase, error) {
	cmd, err := c.deps.Keys.ReadCommand(ctx, c.deps.Display.Prompt(m.prompt), m.accept...)
	if err != nil {
		return st.Phase, err
	}
	next, ok := m.next[cmd]
	if !ok {
		return st.Phase, fmt.Errorf("command %s not accepted in %s", cmd, st.Phase)
	}
	if next == PhaseTerminated {
		st.Outcome = OutcomeQuit
	}
	return next, nil
}

func (c *Controller) runCandidate(ctx context.Context, st *State) (Phase, error) {
	c.deps.Display.Blank()
	result, err := c.deps.Executor.Execute(ctx, c.params.Input, st.Current.Text)
	if err != nil {
		c.log.Debug("run failed", zap.Error(err))
		c.deps.Display.Error(err)
		return PhaseRecovering, nil
	}
	fmt.Fprintln(c.deps.Out, result)
	st.Outcome = OutcomeCompleted
	return PhaseTerminated, nil
}

func (c *Controller) regenerate(ctx context.Context, st *State) (Phase, error) {
	if st.menuPhase == PhaseReviewing {
		c.deps.Display.Blank()
	}
	res, err := c.synthesize(ctx, "regenerate")
	if err != nil {
		return st.Phase, err
	}
	if st.History.Contains(res.Candidate) {
		c.deps.Display.Errorf(noProgressText)
		st.Outcome = OutcomeNoProgress
		return PhaseTerminated, nil
	}
	st.History.Append(res.Candidate)
	st.Current = Candidate{Text: res.Candidate, Provenance: Generated}
	return PhaseReviewing, nil
}

func (c *Controller) edit(ctx context.Context, st *State) (Phase, error) {
	c.deps.Display.Blank()
	edited, err := c.deps.Editor.Edit(ctx, st.Current.Text)
	if err != nil {
		c.deps.Display.Blank()
		c.deps.Display.Errorf(editErrorFormat, err)
		return st.menuPhase, nil
	}
	st.Current = Candidate{Text: edited, Provenance: Edited}
	return PhaseReviewing, nil
}

// synthesize calls the synthesizer behind the busy indicator. Provider
// errors are fatal to the session.
func (c *Controller) synthesize(ctx context.Context, operation string) (synth.Result, error) {
	stop := c.deps.Busy.Start(busyLabel)
	res, err := c.deps.Synthesizer.Synthesize(usage.WithOperation(ctx, operation), c.params.request())
	stop()
	if err != nil {
		return synth.Result{}, fmt.Errorf("error calling completion API: %w", err)
	}
	c.log.Debug("candidate synthesized", zap.Int("bytes", len(res.Candidate)))
	return res, nil
}
