package sample

// Kind describes the semantics of a bundle's ideal-output vectors. The kind
// decides which weighting metrics apply and how member outputs are combined.
type Kind int

const (
	// Continuous marks one or more independent real outputs.
	Continuous Kind = iota
	// SingleProbability marks a single value in [0,1] read as a binary
	// decision against a threshold.
	SingleProbability
	// Distribution marks a vector of class probabilities summing to 1 with
	// exactly one hot class in the training labels.
	Distribution
)

// Binary reports whether the kind carries binary classification semantics.
func (k Kind) Binary() bool {
	return k == SingleProbability || k == Distribution
}

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "Continuous"
	case SingleProbability:
		return "SingleProbability"
	case Distribution:
		return "Distribution"
	}
	return "Unknown"
}
