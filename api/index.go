package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/api/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/config"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/journal"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/queue"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
)

const defaultHistory = 50

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("cannot encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, types.ErrorResponse{Error: err.Error()})
}

func assetStatus(e store.Entry) types.AssetStatus {
	return types.AssetStatus{Entry: e, Countdown: e.Remaining()}
}

func IndexHandler(s *store.Store) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		snap := s.Snapshot()

		counts := make(map[string]int)
		for status, n := range snap.Count() {
			counts[status.String()] = n
		}

		writeJSON(w, http.StatusOK, types.IndexResponse{
			Status: "online",
			Owner:  snap.Owner,
			Assets: len(snap.Entries),
			Counts: counts,
		})
	}
}

func AssetsHandler(s *store.Store) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		snap := s.Snapshot()

		assets := make([]types.AssetStatus, 0, len(snap.Entries))
		for _, e := range snap.Entries {
			assets = append(assets, assetStatus(e))
		}

		writeJSON(w, http.StatusOK, types.AssetsResponse{
			Owner:  snap.Owner,
			Taken:  snap.Taken,
			Assets: assets,
		})
	}
}

func AssetHandler(s *store.Store, retries *queue.RetryQueue, history History) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		e, ok := s.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, store.ErrUnknownAsset)
			return
		}

		resp := types.AssetResponse{
			Asset:   assetStatus(e),
			History: make([]journal.Record, 0),
		}
		if retries != nil {
			if r, ok := retries.Pending(id); ok {
				resp.Retry = &r
			}
		}
		if history != nil {
			records, err := history.ByAsset(id, defaultHistory)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			resp.History = records
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func ClaimsHandler(history History) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		if history == nil {
			writeError(w, http.StatusForbidden, errors.New("claim journal is disabled"))
			return
		}

		limit := defaultHistory
		if v := req.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
				return
			}
			limit = n
		}

		var (
			records []journal.Record
			err     error
		)
		if v := req.URL.Query().Get("asset"); v != "" {
			id, perr := strconv.ParseUint(v, 10, 64)
			if perr != nil {
				writeError(w, http.StatusBadRequest, errors.New("invalid asset id"))
				return
			}
			records, err = history.ByAsset(id, limit)
		} else {
			records, err = history.List(limit)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, types.ClaimsResponse{Claims: records})
	}
}

func RetriesHandler(retries *queue.RetryQueue) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		out := make([]queue.Retry, 0)
		if retries != nil {
			for _, id := range retries.IDs() {
				if r, ok := retries.Pending(id); ok {
					out = append(out, r)
				}
			}
		}
		writeJSON(w, http.StatusOK, types.RetriesResponse{Retries: out})
	}
}

func VersionHandler(chain Chain) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		v := types.VersionResponse{
			Version: config.Version(),
			Commit:  config.Commit(),
		}

		if chain != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 10*time.Second)
			defer cancel()
			info, err := chain.HealthCheck(ctx)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			v.ChainID = info.ChainID.String()
		}

		writeJSON(w, http.StatusOK, v)
	}
}

func NetworkHandler(chain Chain) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		if chain == nil {
			writeError(w, http.StatusServiceUnavailable, errors.New("no chain client"))
			return
		}

		ctx, cancel := context.WithTimeout(req.Context(), 10*time.Second)
		defer cancel()
		info, err := chain.HealthCheck(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, types.NetworkResponse{
			RPCAddr:   chain.CurrentRPCAddr(),
			Nodes:     chain.NodeCount(),
			Failovers: chain.FailoverCount(),
			HeadBlock: info.HeadBlockNum,
			Server:    info.ServerVersion,
		})
	}
}
