package cli

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mchmarny/cargoscan/pkg/data"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryParamInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func (s *server) listAPIHandler(w http.ResponseWriter, r *http.Request) {
	list, err := data.ListAnalyses(s.db, queryParamInt(r, "limit", listLimitDefault))
	if err != nil {
		slog.Error("failed to list analyses", "error", err)
		writeError(w, http.StatusInternalServerError, "error listing analyses")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) analysisAPIHandler(w http.ResponseWriter, r *http.Request) {
	a, err := getAnalysis(s.db, r.PathValue("id"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("failed to get analysis", "id", r.PathValue("id"), "error", err)
		}
		writeError(w, status, http.StatusText(status))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) deleteAPIHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := data.DeleteAnalysis(s.db, id); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("failed to delete analysis", "id", id, "error", err)
		}
		writeError(w, status, http.StatusText(status))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) suspectsAPIHandler(w http.ResponseWriter, r *http.Request) {
	list, err := data.ListSuspects(s.db,
		queryParamInt(r, "min", 1),
		queryParamInt(r, "limit", suspectLimitDefault))
	if err != nil {
		slog.Error("failed to list suspects", "error", err)
		writeError(w, http.StatusInternalServerError, "error listing suspects")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
