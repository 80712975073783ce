package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AnalysisState is one stage of the analysis pipeline.
type AnalysisState string

const (
	StateIdle                   AnalysisState = "IDLE"
	StateFetchingDocumentation  AnalysisState = "FETCHING_DOCUMENTATION"
	StateAnalyzingDocumentation AnalysisState = "ANALYZING_DOCUMENTATION"
	StateCheckingFundingSignal  AnalysisState = "CHECKING_FUNDING_SIGNAL"
	StateFetchingFunding        AnalysisState = "FETCHING_FUNDING"
	StateAnalyzingFunding       AnalysisState = "ANALYZING_FUNDING"
	StateNoFunding              AnalysisState = "NO_FUNDING"
	StateFetchingMarketData     AnalysisState = "FETCHING_MARKET_DATA"
	StateAnalyzingMarket        AnalysisState = "ANALYZING_MARKET"
	StateFetchingTeamData       AnalysisState = "FETCHING_TEAM_DATA"
	StateAnalyzingTeam          AnalysisState = "ANALYZING_TEAM"
	StateFetchingCode           AnalysisState = "FETCHING_CODE"
	StateAnalyzingCode          AnalysisState = "ANALYZING_CODE"
	StateGeneratingRating       AnalysisState = "GENERATING_RATING"
	StateFormattingOutput       AnalysisState = "FORMATTING_OUTPUT"
	StateCompleted              AnalysisState = "COMPLETED"
	StateFailed                 AnalysisState = "FAILED"
)

// AllStates lists every state in pipeline order, FAILED last.
var AllStates = []AnalysisState{
	StateIdle,
	StateFetchingDocumentation,
	StateAnalyzingDocumentation,
	StateCheckingFundingSignal,
	StateFetchingFunding,
	StateAnalyzingFunding,
	StateNoFunding,
	StateFetchingMarketData,
	StateAnalyzingMarket,
	StateFetchingTeamData,
	StateAnalyzingTeam,
	StateFetchingCode,
	StateAnalyzingCode,
	StateGeneratingRating,
	StateFormattingOutput,
	StateCompleted,
	StateFailed,
}

// successors holds the permitted forward edges. FAILED is reachable from
// every non-terminal state and is not listed.
var successors = map[AnalysisState][]AnalysisState{
	StateIdle:                   {StateFetchingDocumentation},
	StateFetchingDocumentation:  {StateAnalyzingDocumentation},
	StateAnalyzingDocumentation: {StateCheckingFundingSignal},
	StateCheckingFundingSignal:  {StateFetchingFunding, StateNoFunding},
	StateFetchingFunding:        {StateAnalyzingFunding},
	StateAnalyzingFunding:       {StateFetchingMarketData},
	StateNoFunding:              {StateFetchingMarketData},
	StateFetchingMarketData:     {StateAnalyzingMarket},
	StateAnalyzingMarket:        {StateFetchingTeamData},
	StateFetchingTeamData:       {StateAnalyzingTeam},
	StateAnalyzingTeam:          {StateFetchingCode, StateGeneratingRating},
	StateFetchingCode:           {StateAnalyzingCode},
	StateAnalyzingCode:          {StateGeneratingRating},
	StateGeneratingRating:       {StateFormattingOutput},
	StateFormattingOutput:       {StateCompleted},
}

var stateMessages = map[AnalysisState]string{
	StateIdle:                   "Waiting to start",
	StateFetchingDocumentation:  "Fetching documentation",
	StateAnalyzingDocumentation: "Analyzing documentation",
	StateCheckingFundingSignal:  "Checking for funding signals",
	StateFetchingFunding:        "Fetching funding data",
	StateAnalyzingFunding:       "Analyzing funding rounds",
	StateNoFunding:              "No funding signals detected",
	StateFetchingMarketData:     "Fetching market data",
	StateAnalyzingMarket:        "Analyzing market opportunity",
	StateFetchingTeamData:       "Gathering team information",
	StateAnalyzingTeam:          "Analyzing team background",
	StateFetchingCode:           "Fetching repository data",
	StateAnalyzingCode:          "Analyzing codebase",
	StateGeneratingRating:       "Generating final rating",
	StateFormattingOutput:       "Preparing results",
	StateCompleted:              "Analysis complete",
	StateFailed:                 "Analysis failed",
}

// Describe returns a short human-readable label for progress displays.
func (s AnalysisState) Describe() string {
	if msg, ok := stateMessages[s]; ok {
		return msg
	}
	return string(s)
}

// IsTerminal reports whether no further transitions follow s.
func (s AnalysisState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether from -> to is an edge of the pipeline.
func CanTransition(from, to AnalysisState) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return slices.Contains(successors[from], to)
}

// StateTransition records one step in a run's history.
type StateTransition struct {
	From      AnalysisState  `json:"from"`
	To        AnalysisState  `json:"to"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AnalysisProgress is the per-run progress record. History only grows and
// CompletedAt is set once, on reaching a terminal state.
type AnalysisProgress struct {
	RunID        string            `json:"runId"`
	CurrentState AnalysisState     `json:"currentState"`
	StateHistory []StateTransition `json:"stateHistory"`
	StartedAt    time.Time         `json:"startedAt"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// NewProgress returns an IDLE progress record stamped now.
func NewProgress() AnalysisProgress {
	return AnalysisProgress{
		RunID:        uuid.NewString(),
		CurrentState: StateIdle,
		StateHistory: []StateTransition{},
		StartedAt:    time.Now(),
	}
}

// ReusedProgress is the record for a result served without running the
// pipeline, from cache or from another caller's run. It has no run id.
func ReusedProgress() AnalysisProgress {
	return AnalysisProgress{
		CurrentState: StateIdle,
		StateHistory: []StateTransition{},
		StartedAt:    time.Now(),
	}
}

// Executed reports whether p belongs to a pipeline run of its own.
func (p AnalysisProgress) Executed() bool {
	return p.RunID != ""
}

// Transition returns a copy of p moved to newState. p is not modified.
func Transition(p AnalysisProgress, newState AnalysisState, metadata map[string]any) AnalysisProgress {
	return TransitionAt(p, newState, time.Now(), metadata)
}

// TransitionAt is Transition with an explicit timestamp.
func TransitionAt(p AnalysisProgress, newState AnalysisState, at time.Time, metadata map[string]any) AnalysisProgress {
	next := p
	history := make([]StateTransition, len(p.StateHistory), len(p.StateHistory)+1)
	copy(history, p.StateHistory)
	next.StateHistory = append(history, StateTransition{
		From:      p.CurrentState,
		To:        newState,
		Timestamp: at,
		Metadata:  metadata,
	})
	next.CurrentState = newState
	if p.CompletedAt != nil {
		completed := *p.CompletedAt
		next.CompletedAt = &completed
	} else if newState.IsTerminal() {
		completed := at
		next.CompletedAt = &completed
	}
	return next
}

// Fail moves p to FAILED and records err.
func Fail(p AnalysisProgress, err error) AnalysisProgress {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	next := Transition(p, StateFailed, map[string]any{"error": msg})
	next.Error = msg
	return next
}

// States returns the emitted target states in order.
func (p AnalysisProgress) States() []AnalysisState {
	out := make([]AnalysisState, 0, len(p.StateHistory))
	for _, t := range p.StateHistory {
		out = append(out, t.To)
	}
	return out
}

// Percent estimates completion as the share of the longest path walked.
func (p AnalysisProgress) Percent() int {
	switch p.CurrentState {
	case StateCompleted:
		return 100
	case StateIdle:
		return 0
	}
	// transitions on the longest successful path, COMPLETED included
	const longestPath = 14
	steps := len(p.StateHistory)
	if p.CurrentState == StateFailed && steps > 0 {
		steps--
	}
	if steps >= longestPath {
		return 99
	}
	return steps * 100 / longestPath
}
