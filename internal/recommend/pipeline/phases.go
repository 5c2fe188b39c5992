package pipeline

// Phase identifies one stage of the recommendation state machine.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseComparisonCheck
	PhaseClassification
	PhasePrimaryRetrieval
	PhaseAdequacyCheck
	PhaseFallbackRetrieval
	PhaseCompile
	PhaseEarlyExit
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseComparisonCheck:
		return "comparison_check"
	case PhaseClassification:
		return "classification"
	case PhasePrimaryRetrieval:
		return "primary_retrieval"
	case PhaseAdequacyCheck:
		return "adequacy_check"
	case PhaseFallbackRetrieval:
		return "fallback_retrieval"
	case PhaseCompile:
		return "compile"
	case PhaseEarlyExit:
		return "early_exit"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Terminal reports whether the machine halts in this phase.
func (p Phase) Terminal() bool {
	return p == PhaseEarlyExit || p == PhaseDone
}

type transition struct {
	// guard must hold for the transition to fire; nil means unconditional.
	guard func(State) bool
	next  Phase
}

// transitions is evaluated in order per phase; the first matching guard
// wins, and the trailing unconditional entry is the fall-through edge.
var transitions = map[Phase][]transition{
	PhaseStart: {
		{next: PhaseComparisonCheck},
	},
	PhaseComparisonCheck: {
		{guard: func(s State) bool { return s.IsComparisonQuery }, next: PhaseEarlyExit},
		{next: PhaseClassification},
	},
	PhaseClassification: {
		{guard: func(s State) bool { return !(s.IsCollegeRelated && s.SafetyCheckPassed) }, next: PhaseEarlyExit},
		{next: PhasePrimaryRetrieval},
	},
	PhasePrimaryRetrieval: {
		{next: PhaseAdequacyCheck},
	},
	PhaseAdequacyCheck: {
		{guard: func(s State) bool { return s.ShouldFallback }, next: PhaseFallbackRetrieval},
		{next: PhaseCompile},
	},
	PhaseFallbackRetrieval: {
		{next: PhaseCompile},
	},
	PhaseCompile: {
		{next: PhaseDone},
	},
}

func nextPhase(current Phase, st State) Phase {
	for _, t := range transitions[current] {
		if t.guard == nil || t.guard(st) {
			return t.next
		}
	}
	// Unreachable with a complete table; halt rather than spin.
	return PhaseDone
}
