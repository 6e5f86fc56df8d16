package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/httpx"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/repositories"
	"github.com/tomychi/anhelo-dashboard-sub001/internal/services"
)

const (
	maxRequestBody  = 64 * 1024
	dateParamLayout = "2006-01-02"
)

var (
	errEmptyBody    = errors.New("request body is required")
	errBodyTooLarge = errors.New("request body exceeds the allowed size")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxRequestBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func decodeJSONBody(r *http.Request, out any) error {
	data, err := readLimitedBody(r, maxRequestBody)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.New("request body must be valid JSON")
	}
	return nil
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, errBodyTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
}

// parseDateParam reads an ISO date (2006-01-02) from a route or query value.
func parseDateParam(value string) (time.Time, error) {
	return time.Parse(dateParamLayout, strings.TrimSpace(value))
}

// writeServiceError translates service sentinel errors into the JSON envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrExpenseInvalidInput),
		errors.Is(err, services.ErrVoucherInvalidInput),
		errors.Is(err, services.ErrBillingInvalidInput),
		errors.Is(err, services.ErrExportInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrExpenseNotFound),
		errors.Is(err, services.ErrVoucherNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrVoucherUsed):
		httpx.WriteError(ctx, w, httpx.NewError("voucher_used", err.Error(), http.StatusConflict))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) {
			switch {
			case repoErr.IsNotFound():
				httpx.WriteError(ctx, w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
				return
			case repoErr.IsConflict():
				httpx.WriteError(ctx, w, httpx.NewError("conflict", "the resource was modified concurrently", http.StatusConflict))
				return
			case repoErr.IsUnavailable():
				httpx.WriteError(ctx, w, httpx.NewError("unavailable", "storage temporarily unavailable", http.StatusServiceUnavailable))
				return
			}
		}
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "an unexpected error occurred", http.StatusInternalServerError))
	}
}
