package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/cityai/internal/common"
	"github.com/gorilla/mux"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc(common.PathHealth, s.health).Methods(http.MethodGet)
	r.HandleFunc(common.PathAuthStatus, s.status).Methods(http.MethodGet)

	r.HandleFunc(common.PathSignup, s.signup).Methods(http.MethodPost)
	r.HandleFunc(common.PathVerifyCode, s.verifyCode).Methods(http.MethodPost)
	r.HandleFunc(common.PathResendCode, s.resendCode).Methods(http.MethodPost)
	r.HandleFunc(common.PathLogin, s.login).Methods(http.MethodPost)
	r.HandleFunc(common.PathRefresh, s.refresh).Methods(http.MethodPost)

	// verify and logout answer without a usable token; me does not.
	r.Handle(common.PathVerify, s.authenticate(false)(http.HandlerFunc(s.verifyToken))).Methods(http.MethodGet)
	r.Handle(common.PathLogout, s.authenticate(false)(http.HandlerFunc(s.logout))).Methods(http.MethodPost)
	r.Handle(common.PathWhoAmI, s.authenticate(true)(http.HandlerFunc(s.me))).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}
