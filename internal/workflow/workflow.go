// Package workflow runs one goal-driven exploration: it navigates to the entry
// page, asks questions, turns each into at most one page action, and records
// the states that actually changed the page.
package workflow

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/v0xg/uiscout/internal/questions"
	"github.com/v0xg/uiscout/internal/uistate"
)

// ErrEntryNavigation marks a run that never reached the entry page.
var ErrEntryNavigation = errors.New("workflow: entry navigation failed")

// Phase is a state of the orchestrator.
type Phase string

const (
	PhaseInit            Phase = "init"
	PhaseNavigating      Phase = "navigating"
	PhaseQuestioning     Phase = "questioning"
	PhaseFollowUp        Phase = "follow_up"
	PhaseAutonomousProbe Phase = "autonomous_probe"
	PhasePersisting      Phase = "persisting"
	PhaseDone            Phase = "done"
)

// Action tags how a turn came about. The values are part of the saved
// manifest.
type Action string

const (
	ActionNavigate   Action = "navigate"
	ActionExplore    Action = "exploration"
	ActionFollowUp   Action = "followup_exploration"
	ActionAutonomous Action = "autonomous_exploration"
)

// Turn links a consumed question, if any, to the state it produced.
type Turn struct {
	Step        int
	Question    *questions.Question
	Action      Action
	Description string
	State       *uistate.UIState
}

// QuestionText returns the originating question or "".
func (t Turn) QuestionText() string {
	if t.Question == nil {
		return ""
	}
	return t.Question.Text
}

// Workflow is the full record of one run. Turns is append-only.
type Workflow struct {
	ID         uuid.UUID
	Goal       string
	EntryURL   string
	StepBudget int
	StartedAt  time.Time
	FinishedAt time.Time

	Turns []Turn
	// Executed holds every consumed question in order, whether or not it
	// produced a turn.
	Executed []questions.Question

	// Err and Failure are set when the entry page could not be reached.
	// Failure is the best-effort error state, nil if none could be captured.
	Err     error
	Failure *uistate.UIState

	// GoalReached reports whether any captured state looks like a success
	// page. It never stops a run.
	GoalReached bool
	// Generations counts successful generative backend calls.
	Generations int
	// Dir is the artifact directory once persisted.
	Dir string
}

// Stats summarizes a run.
type Stats struct {
	States        int
	DistinctPages int
	Questions     int
	FollowUps     int
	Generations   int
}

// Stats computes the exploration statistics of w.
func (w *Workflow) Stats() Stats {
	pages := make(map[string]struct{})
	followUps := 0
	for _, t := range w.Turns {
		if t.State != nil {
			pages[t.State.URL] = struct{}{}
		}
		if t.Action == ActionFollowUp {
			followUps++
		}
	}
	return Stats{
		States:        len(w.Turns),
		DistinctPages: len(pages),
		Questions:     len(w.Executed),
		FollowUps:     followUps,
		Generations:   w.Generations,
	}
}

// ExecutedTexts returns the texts of all consumed questions.
func (w *Workflow) ExecutedTexts() []string {
	return questions.Texts(w.Executed)
}
