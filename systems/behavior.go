package systems

import (
	"context"

	"github.com/pthm-cable/fuzzyflock/fuzzy"
)

// Outputs are the steering commands read back from an engine.
type Outputs struct {
	Turn     float64
	Throttle float64

	// Undefined counts outputs that were undefined this step and fell
	// back to the previous command.
	Undefined int
}

// Think runs one inference step on e and reads turn and throttle. An
// output no rule fired for keeps its value from prev.
func Think(ctx context.Context, e *fuzzy.Engine, prev Outputs) (Outputs, error) {
	if err := e.StepContext(ctx); err != nil {
		return prev, err
	}
	turn := e.GetValue(fuzzy.VarTurn)
	throttle := e.GetValue(fuzzy.VarThrottle)
	out := Outputs{
		Turn:     clamp(turn.Or(prev.Turn), -1, 1),
		Throttle: clamp(throttle.Or(prev.Throttle), 0, 1),
	}
	if !turn.OK {
		out.Undefined++
	}
	if !throttle.OK {
		out.Undefined++
	}
	return out, nil
}
