package api

import (
	"context"
	"io"
	"net/http"

	"github.com/slidecast/slidecast/internal/apperror"
	"github.com/slidecast/slidecast/internal/converter"
	"github.com/slidecast/slidecast/internal/metrics"
	"github.com/slidecast/slidecast/internal/thumbnail"
)

// maxCallbackBody bounds how much of a callback delivery is read before
// signature verification.
const maxCallbackBody = 1 << 20

type CallbackProcessor interface {
	Handle(ctx context.Context, rawBody []byte, signatureHeader string) (*thumbnail.WebhookResult, error)
}

type CallbackConfig struct {
	Processor CallbackProcessor
}

// ConvertCallbackHandler receives terminal notifications from the
// conversion service. The raw body is handed to the processor untouched
// so the HMAC covers exactly the bytes that were signed.
func ConvertCallbackHandler(cfg *CallbackConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			metrics.RecordConversionCallback("rejected")
			apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrBadRequest))
			return
		}

		result, err := cfg.Processor.Handle(r.Context(), body, r.Header.Get(converter.SignatureHeader))
		if err != nil {
			metrics.RecordConversionCallback("rejected")
			apperror.WriteJSON(w, r, err)
			return
		}

		if result.Duplicate {
			metrics.RecordConversionCallback("duplicate")
		} else {
			metrics.RecordConversionCallback("processed")
		}
		writeJSON(w, http.StatusOK, result)
	}
}
