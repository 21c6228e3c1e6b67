// Package httputil holds the JSON response helpers shared by handlers and
// middleware.
package httputil

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/pliu/estate/internal/apierr"
	"github.com/pliu/estate/internal/logging"
)

// WriteJSON writes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write JSON response")
	}
}

// WriteMessage writes {"message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}

// WriteError renders err as {"message": ...}. Internal errors are logged and
// answered with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := apierr.From(err)
	if e.Kind == apierr.KindInternal {
		logging.Ctx(r.Context()).Error().
			Err(e.Err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
	}
	WriteMessage(w, e.Status(), e.Message)
}
