// Package converter talks to the external document-conversion service.
// Submission is synchronous; completion arrives later as a signed webhook.
package converter

import (
	"context"
)

type API interface {
	Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error)
	DownloadResult(ctx context.Context, url string) ([]byte, error)
}
