package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

// httpError sends a JSON error response. Optional internalDetails are logged
// server-side but never sent to the client.
func httpError(w http.ResponseWriter, status int, clientMsg string, internalDetails ...string) {
	if len(internalDetails) > 0 {
		log.Error().
			Int("status", status).
			Str("clientMsg", clientMsg).
			Strs("internalDetails", internalDetails).
			Msg("HTTP error with internal details")
	}
	respondJSON(w, status, map[string]string{"error": clientMsg})
}

// errorFor maps a pipeline error to a status code and a readable message.
func errorFor(w http.ResponseWriter, err error) {
	kind := apperr.Kind(err)
	status := http.StatusInternalServerError
	msg := "internal error"
	switch kind {
	case "record_not_found":
		status, msg = http.StatusNotFound, "application not found in the sheet"
	case "source_unavailable":
		status, msg = http.StatusServiceUnavailable, "application sheet is unavailable"
	case "media_acquisition":
		status, msg = http.StatusBadGateway, "could not fetch the pitch video"
	case "transcription":
		status, msg = http.StatusBadGateway, "transcription failed"
	case "scoring":
		status, msg = http.StatusBadGateway, "scoring failed"
	}
	log.Debug().Err(err).Str("errorKind", kind).Int("status", status).Msg("Mapped error to response")
	respondJSON(w, status, map[string]string{"error": msg, "kind": kind})
}
