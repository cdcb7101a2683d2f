package mintcore

import (
	"fmt"
	"time"
)

// StageChooser supplies a 1-based stage index when more than the
// current stage is still ahead. The CLI backs this with a prompt.
type StageChooser func(stages []Stage) (int, error)

// Decision is the resolver outcome: the stage to mint at, and whether
// it is already open or needs a timed wait.
type Decision struct {
	Stage     Stage
	Immediate bool
	Wait      time.Duration
}

// ResolveStage picks the execution stage. When every stage has already
// opened the last one wins; otherwise the chooser decides, and a choice
// that is already in the past degrades to an immediate mint.
func ResolveStage(stages []Stage, now time.Time, choose StageChooser) (*Decision, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}

	nowSec := float64(now.UnixMilli()) / 1000

	allPassed := true
	for _, st := range stages {
		if st.StartTime > nowSec {
			allPassed = false
			break
		}
	}
	if allPassed {
		return &Decision{Stage: stages[len(stages)-1], Immediate: true}, nil
	}

	if choose == nil {
		return nil, fmt.Errorf("%w: no chooser for upcoming stages", ErrBadStageChoice)
	}
	idx, err := choose(stages)
	if err != nil {
		return nil, err
	}
	if idx < 1 || idx > len(stages) {
		return nil, fmt.Errorf("%w: %d (have %d stages)", ErrBadStageChoice, idx, len(stages))
	}
	st := stages[idx-1]
	if st.StartTime <= nowSec {
		return &Decision{Stage: st, Immediate: true}, nil
	}
	wait := time.Duration((st.StartTime - nowSec) * float64(time.Second))
	return &Decision{Stage: st, Wait: wait}, nil
}
