package baseapp

import (
	"errors"
	"fmt"

	"stagehand/pkg/apperr"
)

// ErrInvalidTransition is returned when a stage is entered out of order.
var ErrInvalidTransition = errors.New("invalid stage transition")

// Stage is a lifecycle state of an App.
type Stage int

const (
	StageCreated Stage = iota
	StageSetup
	StageAction
	StageProcess
	StageEvaluate
	StageTeardown
	StageDone
)

var stageNames = map[Stage]string{
	StageCreated:  "created",
	StageSetup:    "setup",
	StageAction:   "action",
	StageProcess:  "process",
	StageEvaluate: "evaluate",
	StageTeardown: "teardown",
	StageDone:     "done",
}

// String returns the lower case stage name.
func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// transitions lists the stages reachable from each stage.
var transitions = map[Stage][]Stage{
	StageCreated:  {StageSetup},
	StageSetup:    {StageAction, StageProcess},
	StageAction:   {StageDone},
	StageProcess:  {StageEvaluate},
	StageEvaluate: {StageTeardown},
	StageTeardown: {StageDone},
}

// CanTransition reports whether next may follow s.
func (s Stage) CanTransition(next Stage) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// errorKind is the kind of application error the stage barrier reports
// under the stage's own label.
func (s Stage) errorKind() apperr.Kind {
	switch s {
	case StageSetup:
		return apperr.KindSetup
	case StageAction, StageProcess:
		return apperr.KindProcess
	case StageEvaluate:
		return apperr.KindEvaluate
	case StageTeardown:
		return apperr.KindTeardown
	default:
		return apperr.KindGeneric
	}
}

// label prefixes error messages recorded by the stage barrier.
func (s Stage) label() string {
	switch s {
	case StageAction:
		return "Action"
	case StageProcess:
		return "Processing"
	case StageEvaluate:
		return "Evaluation"
	case StageTeardown:
		return "Teardown"
	default:
		return "Setup"
	}
}
