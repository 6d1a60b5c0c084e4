package constants

// JobStatus is the canonical lifecycle status stored on a job document.
type JobStatus string

// Stable values (store these exact strings in the DB).
const (
	JobStatusCreated    JobStatus = "CREATED"    // job registered, no file yet
	JobStatusUploaded   JobStatus = "UPLOADED"   // file accepted, validated, stored
	JobStatusProcessing JobStatus = "PROCESSING" // pipeline stages running
	JobStatusSucceeded  JobStatus = "SUCCEEDED"  // terminal success
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure
	JobStatusExpired    JobStatus = "EXPIRED"    // imposed by TTL removal, never written by the pipeline
)

// JobStep names the pipeline stage a job is currently in.
type JobStep string

const (
	JobStepValidate     JobStep = "VALIDATE"
	JobStepConvertPages JobStep = "CONVERT_PAGES"
	JobStepProcessOCR   JobStep = "PROCESS_OCR"
	JobStepRenderDocx   JobStep = "RENDER_DOCX"
	JobStepDone         JobStep = "DONE"
)

// JobState is a (status, step) pair. Only the pairs listed in stateRank are
// legal; everything else is unrepresentable in the transition table.
type JobState struct {
	Status JobStatus
	Step   JobStep
}

var (
	StateCreated      = JobState{JobStatusCreated, JobStepValidate}
	StateUploaded     = JobState{JobStatusUploaded, JobStepValidate}
	StateConvertPages = JobState{JobStatusProcessing, JobStepConvertPages}
	StateProcessOCR   = JobState{JobStatusProcessing, JobStepProcessOCR}
	StateRenderDocx   = JobState{JobStatusProcessing, JobStepRenderDocx}
	StateSucceeded    = JobState{JobStatusSucceeded, JobStepDone}
	StateFailed       = JobState{JobStatusFailed, JobStepDone}
)

// stateRank orders the legal states along the forward path. Both terminal
// states share the top rank; a job reaches exactly one of them.
var stateRank = map[JobState]int{
	StateCreated:      0,
	StateUploaded:     1,
	StateConvertPages: 2,
	StateProcessOCR:   3,
	StateRenderDocx:   4,
	StateSucceeded:    5,
	StateFailed:       5,
}

// Valid reports whether the pair is one of the legal states.
func (s JobState) Valid() bool {
	_, ok := stateRank[s]
	return ok
}

// Terminal reports whether no further transition is permitted from s.
func (s JobState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Rank returns the position of s on the forward path, or -1 for pairs
// outside the table.
func (s JobState) Rank() int {
	r, ok := stateRank[s]
	if !ok {
		return -1
	}
	return r
}

// CanTransition reports whether moving from -> to is legal: both states must
// be in the table, from must not be terminal, and the path is strictly
// forward. StateFailed is reachable from every non-terminal state.
func CanTransition(from, to JobState) bool {
	fr, ok := stateRank[from]
	if !ok {
		return false
	}
	tr, ok := stateRank[to]
	if !ok {
		return false
	}
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return tr > fr
}
