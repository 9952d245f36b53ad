package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"watchscout-engine/internal/store"
)

type ListingsHandler struct {
	DB *sql.DB
}

func (h ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	listings, err := store.ListRecentListings(r.Context(), h.DB, limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, listings)
}

func (h ListingsHandler) Available(w http.ResponseWriter, r *http.Request) {
	listings, err := store.ListAvailableListings(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, listings)
}
