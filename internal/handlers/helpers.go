package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/pliu/estate/internal/apierr"
	"github.com/pliu/estate/internal/store"
	"github.com/pliu/estate/internal/validation"
)

const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body into dst and runs struct validation on it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.Validation("Invalid request body")
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return &apierr.Error{Kind: apierr.KindValidation, Message: verr.Error(), Err: verr}
	}
	return nil
}

func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, apierr.Validation("Invalid " + name)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter. Absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierr.Validation(name + " must be an integer")
	}
	return n, nil
}

// storeError maps store sentinels onto API errors.
func storeError(err error, notFound string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apierr.NotFound(notFound)
	default:
		return apierr.Internal(err)
	}
}
