package crossval

// ErrSnapshot is a point-in-time view of a candidate's errors.
type ErrSnapshot struct {
	Precision float64 // combined precision error, max(train, test)
	Binary    float64 // combined binary error rate, 0 for Continuous
	Errors    int     // total confusion count across train and test
}

// Progress is the immutable record handed to the progress sink after every
// training iteration. Zero-based counters; Stage is -1 outside chain builds.
type Progress struct {
	Repetition int
	Stage      int
	Fold       int
	Member     int
	Attempt    int
	Epoch      int

	Candidate ErrSnapshot
	Best      ErrSnapshot

	WeightsStat float64
	Message     string
}

// ProgressFunc receives progress records. It is called synchronously and
// must not retain the record's slices (there are none) or block for long.
type ProgressFunc func(Progress)
