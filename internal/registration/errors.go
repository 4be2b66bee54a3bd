package registration

import "fmt"

// Stage identifies where in the pipeline a registration failed.
type Stage string

const (
	StageUserInsert Stage = "user_insert"
	StageHash       Stage = "hash"
	StageSecurity   Stage = "security"
	StagePublish    Stage = "publish"
)

// Kind classifies the failure so callers can branch without string matching.
type Kind string

const (
	KindStore   Kind = "store"
	KindHash    Kind = "hash"
	KindPublish Kind = "publish"
)

// StageError wraps a pipeline failure with the stage it occurred in. The
// underlying cause stays reachable through errors.Is/As.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("registration stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, kind Kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
