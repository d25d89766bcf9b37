package model

// UserProgress tracks the inputs a chat has collected before a job can be built.
// Queued is set once the inputs were handed to the queue and stays set until the
// worker clears the record.
type UserProgress struct {
	SourcePath string
	Queued     bool
}

func (p UserProgress) HasSource() bool { return p.SourcePath != "" }

// Ready reports whether every required input is present.
func (p UserProgress) Ready() bool { return p.HasSource() }
