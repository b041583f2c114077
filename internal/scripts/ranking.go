package scripts

import "github.com/google/uuid"

// Ranking is the outcome of a best-script recompute for one question.
type Ranking struct {
	BestScriptID  *uuid.UUID `json:"best_script_id"`
	Effectiveness float64    `json:"effectiveness"`
	Lifecycle     Lifecycle  `json:"lifecycle_status"`
}

// SelectBest returns the index of the script with the highest
// (Effectiveness, SuccessCount) pair, or -1 for an empty slice. Scripts are
// expected in creation order; the first of fully tied scripts wins.
func SelectBest(scripts []Script) int {
	best := -1
	for i, s := range scripts {
		if best < 0 || outranks(s, scripts[best]) {
			best = i
		}
	}
	return best
}

func outranks(a, b Script) bool {
	if a.Effectiveness != b.Effectiveness {
		return a.Effectiveness > b.Effectiveness
	}
	return a.SuccessCount > b.SuccessCount
}

// Rank rescores every script in place and selects the best one. IsBest is set
// on the winner and cleared on all others.
func (p Policy) Rank(scripts []Script) Ranking {
	for i := range scripts {
		s := &scripts[i]
		s.Effectiveness = p.Effectiveness(s.SuccessCount, s.FailCount, s.HasSteps, s.Type)
	}

	idx := SelectBest(scripts)

	var best *Script
	for i := range scripts {
		scripts[i].IsBest = i == idx
		if i == idx {
			best = &scripts[i]
		}
	}

	r := Ranking{Lifecycle: p.Lifecycle(best)}
	if best != nil {
		id := best.ID
		r.BestScriptID = &id
		r.Effectiveness = best.Effectiveness
	}
	return r
}
