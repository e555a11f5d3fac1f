package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/slidecast/slidecast/internal/apperror"
	"github.com/slidecast/slidecast/internal/db"
	"github.com/slidecast/slidecast/internal/metrics"
	"github.com/slidecast/slidecast/internal/thumbnail"
)

// ThumbnailSubmitter is the submission surface the handlers drive.
type ThumbnailSubmitter interface {
	Submit(ctx context.Context, slideID pgtype.UUID) (*thumbnail.SubmitResult, error)
	Retry(ctx context.Context, slideID pgtype.UUID) (*thumbnail.SubmitResult, error)
}

type SlideReader interface {
	GetSlide(ctx context.Context, id pgtype.UUID) (db.Slide, error)
}

type URLSigner interface {
	SignDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type ThumbnailsConfig struct {
	Submitter    ThumbnailSubmitter
	Queries      SlideReader
	Signer       URLSigner
	SignedURLTTL time.Duration
}

func SubmitThumbnailHandler(cfg *ThumbnailsConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slideID, err := parseIDParam(r, "id")
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}

		result, err := cfg.Submitter.Submit(r.Context(), slideID)
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}

		metrics.RecordThumbnailSubmission(string(result.Status))
		writeJSON(w, submitStatusCode(result.Status), result)
	}
}

func RetryThumbnailHandler(cfg *ThumbnailsConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slideID, err := parseIDParam(r, "id")
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}

		result, err := cfg.Submitter.Retry(r.Context(), slideID)
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}

		metrics.RecordThumbnailSubmission(string(result.Status))
		writeJSON(w, submitStatusCode(result.Status), result)
	}
}

type thumbnailStatusResponse struct {
	SlideID string             `json:"slide_id"`
	Status  db.ThumbnailStatus `json:"status"`
	URL     string             `json:"url,omitempty"`
}

// GetThumbnailHandler reports the slide's thumbnail state. A completed
// thumbnail comes back with a short-lived download URL.
func GetThumbnailHandler(cfg *ThumbnailsConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slideID, err := parseIDParam(r, "id")
		if err != nil {
			apperror.WriteJSON(w, r, err)
			return
		}

		slide, err := cfg.Queries.GetSlide(r.Context(), slideID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				apperror.WriteJSON(w, r, apperror.Wrap(err, apperror.ErrNotFound))
				return
			}
			apperror.WriteJSON(w, r, err)
			return
		}

		resp := thumbnailStatusResponse{
			SlideID: uuidString(slide.ID),
			Status:  slide.ThumbnailStatus,
		}
		if slide.ThumbnailStatus == db.ThumbnailStatusCompleted && slide.ThumbnailKey != nil {
			url, err := cfg.Signer.SignDownloadURL(r.Context(), *slide.ThumbnailKey, cfg.SignedURLTTL)
			if err != nil {
				apperror.WriteJSON(w, r, err)
				return
			}
			resp.URL = url
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func submitStatusCode(status thumbnail.SubmitStatus) int {
	switch status {
	case thumbnail.StatusProcessing:
		return http.StatusAccepted
	case thumbnail.StatusCompleted:
		return http.StatusOK
	case thumbnail.StatusDisabled:
		return http.StatusConflict
	case thumbnail.StatusQuotaExhausted:
		return http.StatusPaymentRequired
	case thumbnail.StatusFailed:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusOK
	}
}

func uuidString(id pgtype.UUID) string {
	return uuid.UUID(id.Bytes).String()
}

func parseIDParam(r *http.Request, name string) (pgtype.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return pgtype.UUID{}, apperror.WrapWithMessage(err, "bad_request", "invalid "+name+" parameter", http.StatusBadRequest)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
