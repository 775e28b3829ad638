package daemons

import (
	"sync"

	"github.com/payvest/ledger/jobs"
)

type CronJob struct {
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	Jobs    []jobs.Job
}

func NewCronJob(jobs ...jobs.Job) *CronJob {
	return &CronJob{running: true, stop: make(chan struct{}), Jobs: jobs}
}

func (c *CronJob) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

func (c *CronJob) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		c.running = false
		close(c.stop)
	}
}

// Start runs every job on its own goroutine and blocks until Stop.
func (c *CronJob) Start() {
	for _, job := range c.Jobs {
		go c.Process(job)
	}

	<-c.stop
}

func (c *CronJob) Process(job jobs.Job) {
	for c.Running() {
		job.Process()
	}
}
