// SPDX-License-Identifier: Apache-2.0

package executor

import "fmt"

// Progress is a snapshot of a migration attempt, published to observers after
// every committed step and exactly once more when the attempt completes or
// aborts. It feeds UIs and logs; correctness never depends on it.
type Progress struct {
	// Completed and Total count plan steps.
	Completed int
	Total     int
	// Description names the current step, or the overall outcome once Done.
	Description string
	// Done is set on the final update of an attempt.
	Done bool
	// Err carries the failure on an aborted attempt.
	Err error
}

// Fraction returns completion as a value in [0, 1]. An empty plan is complete.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Completed) / float64(p.Total)
}

func (p Progress) String() string {
	return fmt.Sprintf("%d/%d %s", p.Completed, p.Total, p.Description)
}

// Observer receives progress updates. Observers are called synchronously from
// the migration context and must not block.
type Observer func(Progress)
