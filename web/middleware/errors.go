package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"

	"github.com/adamwoolhether/ecoalbridge/web"
	"github.com/adamwoolhether/ecoalbridge/web/errs"
	"github.com/adamwoolhether/ecoalbridge/web/mux"
)

// Errors renders handler errors as the JSON failure envelope. Validation
// failures become 422. Errors that are not *errs.Error are treated as
// internal and their message is withheld from the client.
func Errors(log *slog.Logger) mux.Middleware {
	m := func(handler mux.Handler) mux.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			reqLog := log.With("trace_id", mux.GetValues(ctx).TraceID)

			if fieldErr, ok := errors.AsType[errs.FieldErrors](err); ok {
				reqLog.Info("request rejected", "fields", fieldErr.Fields())
				return web.RespondJSON(ctx, w, http.StatusUnprocessableEntity, fieldErr)
			}

			appErr, ok := errors.AsType[*errs.Error](err)
			if !ok {
				appErr = errs.NewInternal(err)
			}

			level := slog.LevelWarn
			if appErr.Code >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			reqLog.Log(ctx, level, err.Error(),
				"status", appErr.Code,
				"source_err_file", path.Base(appErr.FileName),
				"source_err_func", path.Base(appErr.FuncName))

			if appErr.IsInternal() {
				appErr.Message = http.StatusText(appErr.Code)
			}

			return web.RespondError(ctx, w, appErr)
		}

		return h
	}

	return m
}
