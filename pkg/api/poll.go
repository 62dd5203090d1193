package api

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/zabal/bonfires/pkg/logger"
)

type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobComplete   JobStatus = "complete"
	JobFailed     JobStatus = "failed"
)

// Job is the backend's view of a long-running operation such as hyperblog
// generation.
type Job struct {
	ID       string          `json:"id"`
	Status   JobStatus       `json:"status"`
	Progress *float64        `json:"progress,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// PollOptions configures PollJobStatus. Zero values mean a 1 second interval
// and a 5 minute timeout.
type PollOptions struct {
	Interval   time.Duration
	Timeout    time.Duration
	OnProgress func(progress float64)
}

const (
	defaultPollInterval = time.Second
	defaultPollTimeout  = 5 * time.Minute
)

// JobEndpoint returns the endpoint of a job resource.
func JobEndpoint(jobID string) string {
	return "/jobs/" + url.PathEscape(jobID)
}

// JobStatus fetches the live state of a job. It is never served from cache.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.Get(ctx, JobEndpoint(jobID), &job, WithoutCache()); err != nil {
		return nil, err
	}
	return &job, nil
}

// PollJobStatus fetches the job until it completes or fails and returns its
// raw result.
//
// OnProgress is called with every progress value the job reports, including
// the one sent along with completion. A failed job yields a *JobError; a job
// still running once Timeout has elapsed yields ErrPollTimeout. Fetch errors
// that survive the client's own retries are returned unchanged.
func (c *Client) PollJobStatus(ctx context.Context, jobID string, opts PollOptions) (json.RawMessage, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}

	start := c.now()
	for {
		if c.now().Sub(start) > timeout {
			logger.Warn("Job polling timed out", "job_id", jobID, "timeout", timeout)
			return nil, ErrPollTimeout
		}

		job, err := c.JobStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}

		if job.Progress != nil {
			logger.Debug("Job progress", "job_id", jobID, "status", job.Status, "progress", *job.Progress)
			if opts.OnProgress != nil {
				opts.OnProgress(*job.Progress)
			}
		}

		switch job.Status {
		case JobComplete:
			if len(job.Result) == 0 {
				return json.RawMessage("null"), nil
			}
			return job.Result, nil
		case JobFailed:
			msg := job.Error
			if msg == "" {
				msg = "Job failed"
			}
			return nil, &JobError{JobID: jobID, Message: msg}
		}

		if err := c.sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
}
