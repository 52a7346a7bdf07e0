package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// validID reports whether s is a well-formed id. Ids are checked at the
// handler boundary so a malformed one never reaches the store, where it
// would fail as a uuid encode error instead of a clean 400 or 404.
func validID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
