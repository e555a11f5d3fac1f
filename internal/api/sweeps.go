package api

import (
	"net/http"

	"github.com/slidecast/slidecast/internal/apperror"
	"github.com/slidecast/slidecast/internal/metrics"
	"github.com/slidecast/slidecast/internal/worker"
)

type Broker interface {
	Enqueue(jobType string, payload interface{}) (string, error)
}

type SweepsConfig struct {
	Broker Broker
}

type enqueueResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func EnqueueRetroSweepHandler(cfg *SweepsConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := cfg.Broker.Enqueue(worker.JobTypeRetroSweep, worker.NewRetroSweepPayload())
		if err != nil {
			apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrServiceUnavailable))
			return
		}

		metrics.RecordJobEnqueued(worker.JobTypeRetroSweep)
		writeJSON(w, http.StatusAccepted, enqueueResponse{JobID: jobID, Status: "queued"})
	}
}

func EnqueueRetentionSweepHandler(cfg *SweepsConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := cfg.Broker.Enqueue(worker.JobTypeRetentionSweep, worker.NewRetentionSweepPayload())
		if err != nil {
			apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrServiceUnavailable))
			return
		}

		metrics.RecordJobEnqueued(worker.JobTypeRetentionSweep)
		writeJSON(w, http.StatusAccepted, enqueueResponse{JobID: jobID, Status: "queued"})
	}
}
