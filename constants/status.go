package constants

// Stage is the state an ingestion run has reached.
type Stage string

const (
	StageStart     Stage = "start"
	StageExtracted Stage = "extracted" // transcript available
	StagePrompted  Stage = "prompted"  // model replied
	StageCoerced   Stage = "coerced"   // reply parsed into an object
	StageDone      Stage = "done"
)
