package backendfake

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/jrsteele09/recharge-dashboard/internal/utils"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyAccount stores the authenticated account
	ContextKeyAccount ContextKey = "account"
	// ContextKeyFields stores the decoded request fields
	ContextKeyFields ContextKey = "fields"
)

func chainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (b *Backend) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		b.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Int("status", rec.status).
			Msg("handled")
	}
}

func (b *Backend) recoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				b.logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next(w, r)
	}
}

// fieldsMiddleware decodes the JSON body, or the query string for GET, into a flat field map.
func (b *Backend) fieldsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields := map[string]any{}
		if r.Method == http.MethodGet {
			for key := range r.URL.Query() {
				fields[key] = r.URL.Query().Get(key)
			}
		} else if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&fields); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, http.StatusBadRequest, "malformed JSON body")
				return
			}
		}
		ctx := context.WithValue(r.Context(), ContextKeyFields, fields)
		next(w, r.WithContext(ctx))
	}
}

// requireSession validates the login_key and user_id fields against role. Anything wrong with
// them is a 401, which is what makes the client drop its session.
func (b *Backend) requireSession(role Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			fields := fieldsFrom(r)
			loginKey, _ := fields["login_key"].(string)
			userID, ok := utils.IDFromAny(fields["user_id"])
			if loginKey == "" || !ok {
				writeError(w, http.StatusUnauthorized, "Missing session credentials")
				return
			}

			account, err := b.authenticate(loginKey, userID, role)
			if err != nil {
				b.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected session")
				writeError(w, http.StatusUnauthorized, "Invalid session")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAccount, account)
			next(w, r.WithContext(ctx))
		}
	}
}

func fieldsFrom(r *http.Request) map[string]any {
	fields, _ := r.Context().Value(ContextKeyFields).(map[string]any)
	if fields == nil {
		return map[string]any{}
	}
	return fields
}

func accountFrom(r *http.Request) Account {
	account, _ := r.Context().Value(ContextKeyAccount).(Account)
	return account
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func numberField(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
