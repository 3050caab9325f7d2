// Package api assembles the HTTP surface of the synchronization service.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"chatsync/pkg/api/handlers"
)

// Handler returns the router with all chat endpoints:
//
//	GET  /users
//	GET  /conversations?userId=ID
//	GET  /conversations/{id}/messages?userId=ID[&beforeId=ID]
//	POST /conversations/{id}/read
//	POST /messages
func Handler() http.Handler {
	r := mux.NewRouter()
	handlers.RegisterUsers(r)
	handlers.RegisterConversations(r)
	handlers.RegisterMessages(r)
	return r
}
