package pipeline

// State is the position of a record in one run.
type State int

const (
	StatePending State = iota
	StateClassified
	StateProcessed
	StateNormalized
	StateCommitted
	// StateSkipped ends a run that found no pending record.
	StateSkipped
)

var stateNames = [...]string{
	StatePending:    "pending",
	StateClassified: "classified",
	StateProcessed:  "processed",
	StateNormalized: "normalized",
	StateCommitted:  "committed",
	StateSkipped:    "skipped",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}

// next reports whether to is the single legal successor of s.
func (s State) next(to State) bool {
	switch s {
	case StatePending:
		return to == StateClassified || to == StateSkipped
	case StateClassified:
		return to == StateProcessed
	case StateProcessed:
		return to == StateNormalized
	case StateNormalized:
		return to == StateCommitted
	}
	return false
}
