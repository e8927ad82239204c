package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hypnagogia/dreamkeeper/internal/game"
)

// errorBody is the JSON error envelope. The game client switches its failure
// narration on error.kind.
type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// respondJSON writes v with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

// respondError maps err to the error envelope. Pipeline errors carry their
// own kind; anything else is reported as internal.
func respondError(w http.ResponseWriter, err error) {
	kind := game.KindInternal
	var perr *game.Error
	if errors.As(err, &perr) {
		kind = perr.Kind
	}

	var body errorBody
	body.Error.Kind = kind
	body.Error.Message = err.Error()
	respondJSON(w, statusForKind(kind), body)
}

// respondErrorKind reports a failure with an explicit kind.
func respondErrorKind(w http.ResponseWriter, kind, message string) {
	var body errorBody
	body.Error.Kind = kind
	body.Error.Message = message
	respondJSON(w, statusForKind(kind), body)
}

func statusForKind(kind string) int {
	switch kind {
	case game.KindBadRequest:
		return http.StatusBadRequest
	case game.KindTranscription, game.KindJudgment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
