package types

import (
	"net/http"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type APIOutline struct {
	Routes []RouteOutline `json:"routes"`
}

type RouteOutline struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func NewOutline() *APIOutline {
	return &APIOutline{
		Routes: make([]RouteOutline, 0),
	}
}

func (o *APIOutline) RegisterRoute(router *mux.Router, method string, path string, f func(http.ResponseWriter, *http.Request)) {
	o.Routes = append(o.Routes, RouteOutline{
		Method: method,
		Path:   path,
	})
	router.HandleFunc(path, f).Methods(method, http.MethodOptions)
}

func (o *APIOutline) RegisterGetRoute(router *mux.Router, path string, f func(http.ResponseWriter, *http.Request)) {
	o.RegisterRoute(router, http.MethodGet, path, f)
}

func (o *APIOutline) OutlineHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(o)
		if err != nil {
			log.Error().Err(err).Msg("cannot encode outline")
			return
		}
	}
}
