package constants

import "testing"

func TestJobStateValid(t *testing.T) {
	valid := []JobState{
		StateCreated, StateUploaded, StateConvertPages,
		StateProcessOCR, StateRenderDocx, StateSucceeded, StateFailed,
	}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %v to be valid", s)
		}
	}

	invalid := []JobState{
		{JobStatusCreated, JobStepConvertPages},
		{JobStatusProcessing, JobStepValidate},
		{JobStatusSucceeded, JobStepRenderDocx},
		{JobStatusFailed, JobStepValidate},
		{"", ""},
		{"BOGUS", JobStepDone},
	}
	for _, s := range invalid {
		if s.Valid() {
			t.Errorf("expected %v to be invalid", s)
		}
	}
}

func TestTransitionsStrictlyForward(t *testing.T) {
	path := []JobState{
		StateCreated, StateUploaded, StateConvertPages,
		StateProcessOCR, StateRenderDocx, StateSucceeded,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Errorf("expected %v -> %v to be legal", path[i], path[i+1])
		}
	}

	// No step ever regresses.
	for i := range path {
		for j := 0; j <= i; j++ {
			if path[j] == StateSucceeded || i == j {
				continue
			}
			if CanTransition(path[i], path[j]) {
				t.Errorf("expected backward transition %v -> %v to be illegal", path[i], path[j])
			}
		}
	}
}

func TestFailedReachableFromAnyNonTerminal(t *testing.T) {
	for _, s := range []JobState{StateCreated, StateUploaded, StateConvertPages, StateProcessOCR, StateRenderDocx} {
		if !CanTransition(s, StateFailed) {
			t.Errorf("expected %v -> FAILED to be legal", s)
		}
	}
}

func TestTerminalStatesAreWriteOnce(t *testing.T) {
	all := []JobState{
		StateCreated, StateUploaded, StateConvertPages,
		StateProcessOCR, StateRenderDocx, StateSucceeded, StateFailed,
	}
	for _, term := range []JobState{StateSucceeded, StateFailed} {
		if !term.Terminal() {
			t.Fatalf("expected %v to be terminal", term)
		}
		for _, to := range all {
			if CanTransition(term, to) {
				t.Errorf("expected no transition out of %v, got %v allowed", term, to)
			}
		}
	}
}

func TestSkippingStagesIsForward(t *testing.T) {
	// Forward jumps are permitted by the table; the orchestrator chooses to
	// visit every stage, but a skipped intermediate state is not a regression.
	if !CanTransition(StateUploaded, StateProcessOCR) {
		t.Error("expected UPLOADED -> PROCESS_OCR to be forward-legal")
	}
	if CanTransition(StateProcessOCR, StateUploaded) {
		t.Error("expected PROCESS_OCR -> UPLOADED to be illegal")
	}
}
