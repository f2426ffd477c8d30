package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nkern/swarmhub/internal/roomerr"
)

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("gateway: encode response failed", "error", err)
	}
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}

// roomErrStatus maps the transport-agnostic roomerr taxonomy to an HTTP
// status.
func roomErrStatus(err error) (int, string) {
	if re, ok := roomerr.As(err, roomerr.KindBadRequest); ok {
		return http.StatusBadRequest, re.Message
	}
	if re, ok := roomerr.As(err, roomerr.KindFrozen); ok {
		return http.StatusForbidden, re.Message
	}
	if re, ok := roomerr.As(err, roomerr.KindTransient); ok {
		return http.StatusServiceUnavailable, re.Message
	}
	return http.StatusInternalServerError, err.Error()
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func decodeJSONBytes(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
