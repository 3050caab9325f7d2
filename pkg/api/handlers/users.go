package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/models"
	"chatsync/pkg/store"
	"chatsync/pkg/utils"
)

// RegisterUsers registers the user directory endpoint.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/users", listUsers).Methods(http.MethodGet)
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers()
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	_ = utils.JSONWrite(w, http.StatusOK, users)
}
