package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chatsync/pkg/logger"
	"chatsync/pkg/store"
	"chatsync/pkg/utils"
	"chatsync/pkg/validation"
)

// writeError maps service errors onto the wire: validation problems are the
// caller's fault (400), missing records are 404, anything else is a store
// failure (500) exposed as a bare message string only.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case validation.IsValidation(err):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("store_error", "error", err)
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// pathID parses the {id} path variable; 0 with a 400 response on failure.
func pathID(w http.ResponseWriter, vars map[string]string) (int64, bool) {
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(w, http.StatusBadRequest, "invalid conversation id")
		return 0, false
	}
	return id, true
}

// queryInt64 parses an integer query parameter, 0 when absent or malformed.
func queryInt64(r *http.Request, name string) int64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
