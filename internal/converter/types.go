package converter

// SubmitRequest describes one conversion job sent to the external service.
// The callback URL carries our correlation context so the webhook handler
// does not depend on the external id alone.
type SubmitRequest struct {
	SourceURL    string `json:"input_url"`
	InputFormat  string `json:"input_format"`
	OutputFormat string `json:"output_format"`
	OutputName   string `json:"output_name"`
	CallbackURL  string `json:"callback_url"`
}

type SubmitResponse struct {
	ExternalJobID string `json:"id"`
	Status        string `json:"status"`
}

// Callback event names delivered by the conversion service.
const (
	EventJobFinished = "job.finished"
	EventJobFailed   = "job.failed"
)

type CallbackPayload struct {
	Event string      `json:"event"`
	Job   CallbackJob `json:"job"`
}

type CallbackJob struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Tasks  []CallbackTask `json:"tasks"`
}

type CallbackTask struct {
	Status  string              `json:"status"`
	Result  *CallbackTaskResult `json:"result,omitempty"`
	Message string              `json:"message,omitempty"`
}

type CallbackTaskResult struct {
	Files []CallbackResultFile `json:"files"`
}

type CallbackResultFile struct {
	URL string `json:"url"`
}

// ResultFileURL returns the first result file URL across tasks, or ""
// when the payload carries none.
func (p *CallbackPayload) ResultFileURL() string {
	for _, task := range p.Job.Tasks {
		if task.Result == nil {
			continue
		}
		for _, f := range task.Result.Files {
			if f.URL != "" {
				return f.URL
			}
		}
	}
	return ""
}

// ErrorMessage returns the first task-level message, falling back to the
// job status when the service sent no detail.
func (p *CallbackPayload) ErrorMessage() string {
	for _, task := range p.Job.Tasks {
		if task.Message != "" {
			return task.Message
		}
	}
	return "conversion failed with status " + p.Job.Status
}
