package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cliploader/cliploader/clip"
	"github.com/cliploader/cliploader/dataset"
)

var Router = mux.NewRouter()

type PathwayTensor struct {
	Shape [4]int `json:"shape"`
	Data []float32 `json:"data"`
}

type ItemResponse struct {
	Pathways []PathwayTensor `json:"pathways"`
	Label int `json:"label"`
	// Effective index: differs from the requested one when a replacement
	// clip was substituted.
	Index int `json:"index"`
	Metadata map[string]string `json:"metadata"`
}

type StatusResponse struct {
	Session string `json:"session"`
	Mode string `json:"mode"`
	Length int `json:"length"`
}

// Setup registers the dataset protocol routes consumed by the training
// loop's workers. journal may be nil.
func Setup(ds *dataset.Dataset, journal *Journal) {
	Router.HandleFunc("/length", func(w http.ResponseWriter, r *http.Request) {
		clip.JsonResponse(w, ds.Len())
	}).Methods("GET")

	Router.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Mode: ds.Mode(),
			Length: ds.Len(),
		}
		if journal != nil {
			resp.Session = journal.Session()
		}
		clip.JsonResponse(w, resp)
	}).Methods("GET")

	Router.HandleFunc("/items/{idx:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		idx := clip.ParseInt(mux.Vars(r)["idx"])
		if idx >= ds.Len() {
			http.Error(w, "no such item", 404)
			return
		}
		shortCycle := -1
		if s := r.URL.Query().Get("short_cycle"); s != "" {
			shortCycle = clip.ParseInt(s)
		}
		pathways, label, effIdx, metadata, err := ds.GetShortCycle(idx, shortCycle)
		if err != nil {
			// retry budget exhausted: fail the step loudly
			http.Error(w, err.Error(), 500)
			return
		}
		resp := ItemResponse{
			Label: label,
			Index: effIdx,
			Metadata: metadata,
		}
		for _, t := range pathways {
			resp.Pathways = append(resp.Pathways, PathwayTensor{Shape: t.Shape, Data: t.Data})
		}
		clip.JsonResponse(w, resp)
	}).Methods("GET")

	Router.HandleFunc("/failures", func(w http.ResponseWriter, r *http.Request) {
		if journal == nil {
			http.Error(w, "no journal configured", 404)
			return
		}
		limit := 100
		if s := r.URL.Query().Get("limit"); s != "" {
			limit = clip.ParseInt(s)
		}
		clip.JsonResponse(w, journal.ListRecent(limit))
	}).Methods("GET")

	Router.HandleFunc("/failures/counts", func(w http.ResponseWriter, r *http.Request) {
		if journal == nil {
			http.Error(w, "no journal configured", 404)
			return
		}
		clip.JsonResponse(w, journal.CountByPath())
	}).Methods("GET")
}
