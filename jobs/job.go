package jobs

// Job is a long running unit of background work. Process blocks until the
// job's schedule stops.
type Job interface {
	Process()
}
