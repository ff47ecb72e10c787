package core

// pipeline is the Kanban order applications move through. Rejected is only
// reachable by editing the status directly.
var pipeline = map[JobStatus]JobStatus{
	JobApplied:   JobInterview,
	JobInterview: JobOffer,
}

// NextStatus returns the stage after s. Offer and rejected have none.
func NextStatus(s JobStatus) (JobStatus, bool) {
	next, ok := pipeline[s]
	return next, ok
}
