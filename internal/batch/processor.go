package batch

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"odm-orthophoto/internal/orthophoto"
)

// Config holds the shared settings for a batch run.
type Config struct {
	Options orthophoto.Options
	Workers int

	// render runs one job; tests replace it.
	render func(orthophoto.Job, orthophoto.Options) (*orthophoto.Result, error)
}

// Result holds the outcome of one job.
type Result struct {
	Index   int
	Job     orthophoto.Job
	Success bool
	Error   string
	Output  *orthophoto.Result
}

// Run renders all jobs using a worker pool. Jobs are independent: each owns
// its canvas, and a failed job does not stop the others.
func Run(cfg Config, jobs []orthophoto.Job) []Result {
	log := cfg.Options.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	render := cfg.render
	if render == nil {
		render = orthophoto.Run
	}
	workers := max(cfg.Workers, 1)

	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				log.Info("batch progress", "done", processed.Load(), "total", total,
					"elapsed", time.Since(start).Round(time.Second))
			}
		}
	}()

	// Worker pool
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(render, cfg.Options, idx, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func processJob(render func(orthophoto.Job, orthophoto.Options) (*orthophoto.Result, error),
	opts orthophoto.Options, idx int, job orthophoto.Job) Result {
	if opts.Logger != nil {
		opts.Logger = opts.Logger.With("job", idx)
	}
	res, err := render(job, opts)
	if err != nil {
		return Result{Index: idx, Job: job, Error: err.Error()}
	}
	return Result{Index: idx, Job: job, Success: true, Output: res}
}
