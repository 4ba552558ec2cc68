package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register mounts every API route. Routes under /api except the auth
// entrypoints require a valid session.
func Register(r *mux.Router, auth *AuthHandler, watchlist *WatchlistHandler, events *EventsHandler) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/signup", auth.SignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", auth.SignIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", auth.SignOut).Methods(http.MethodPost)
	api.HandleFunc("/auth/session", auth.Session).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(RequireAuth(auth.Identity))

	authed.HandleFunc("/profile", auth.Profile).Methods(http.MethodGet)
	authed.HandleFunc("/watchlist", watchlist.List).Methods(http.MethodGet)
	authed.HandleFunc("/watchlist", watchlist.Add).Methods(http.MethodPost)
	authed.HandleFunc("/watchlist/{id}", watchlist.Remove).Methods(http.MethodDelete)
	authed.HandleFunc("/watchlist/{id}/watched", watchlist.SetWatched).Methods(http.MethodPut)
	authed.HandleFunc("/watchlist/{id}/rating", watchlist.SetRating).Methods(http.MethodPut)
	authed.HandleFunc("/events", events.Stream).Methods(http.MethodGet)
}
