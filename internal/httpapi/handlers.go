package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hypnagogia/dreamkeeper/internal/game"
	"github.com/hypnagogia/dreamkeeper/internal/observe"
	"github.com/hypnagogia/dreamkeeper/internal/wishlog"
)

// maxUploadBytes caps wish recordings. A minute of 48 kHz 16-bit mono WAV is
// under 6 MiB; anything bigger is not a wish.
const maxUploadBytes = 16 << 20

// rulesResponse is the body of /get_rules and /generate_rules.
type rulesResponse struct {
	Doors       []game.DoorLaw `json:"doors"`
	CurrentDoor int            `json:"current_door"`
}

// narrationResponse is the body of the subtitle-plus-clip endpoints.
type narrationResponse struct {
	Subtitle string `json:"subtitle"`
	AudioURL string `json:"audio_url,omitempty"`
}

// hintResponse is the body of /get_hint.
type hintResponse struct {
	Hint      string `json:"hint"`
	Level     int    `json:"hint_level"`
	Remaining int    `json:"hints_remaining"`
	AudioURL  string `json:"audio_url,omitempty"`
}

// handleGetRules returns the installed rule set, generating one on first
// call.
func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	if !s.session.HasRules() {
		s.installFreshRules(r.Context())
	}
	respondJSON(w, http.StatusOK, rulesResponse{
		Doors:       s.session.Rules(),
		CurrentDoor: s.session.CurrentDoor(),
	})
}

// handleGenerateRules discards the current rule set and authors a new one.
// Cached narration describes the old rules, so the clip cache is emptied.
func (s *Server) handleGenerateRules(w http.ResponseWriter, r *http.Request) {
	s.installFreshRules(r.Context())
	if err := s.cache.Clear(); err != nil {
		s.logger.Warn("clearing audio cache failed", "error", err)
	}
	respondJSON(w, http.StatusOK, rulesResponse{
		Doors:       s.session.Rules(),
		CurrentDoor: s.session.CurrentDoor(),
	})
}

func (s *Server) installFreshRules(ctx context.Context) {
	doors := s.rules.Generate(ctx, s.doorCount)
	s.session.SetRules(doors)
	s.logger.Info("rules installed", "doors", len(doors))
}

// handleGetHint serves the next clue for a door, with a freshly synthesized
// clip. Each call climbs the door's clue ladder.
func (s *Server) handleGetHint(w http.ResponseWriter, r *http.Request) {
	doorID, err := doorIDParam(r)
	if err != nil {
		respondErrorKind(w, game.KindBadRequest, err.Error())
		return
	}
	if !s.session.HasRules() {
		respondErrorKind(w, game.KindBadRequest, "no rules installed; call get_rules first")
		return
	}

	clue, level, remaining, err := s.session.Hint(doorID)
	if err != nil {
		respondErrorKind(w, game.KindBadRequest, err.Error())
		return
	}
	s.metrics.RecordHint(r.Context(), doorID)

	resp := hintResponse{Hint: clue, Level: level, Remaining: remaining}
	if url, err := s.adj.SynthesizeClip(r.Context(), game.HintLine(clue, level)); err != nil {
		s.logger.Warn("hint synthesis failed", "error", err)
	} else {
		resp.AudioURL = url
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleProcessWish runs the full wish pipeline on the uploaded recording.
// The multipart form carries door_id, file, and an optional door_rules law
// override.
func (s *Server) handleProcessWish(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondErrorKind(w, game.KindBadRequest, "parsing multipart form: "+err.Error())
		return
	}

	doorID, err := strconv.Atoi(r.FormValue("door_id"))
	if err != nil {
		respondErrorKind(w, game.KindBadRequest, "door_id must be an integer")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondErrorKind(w, game.KindBadRequest, "file part is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		respondErrorKind(w, game.KindInternal, "reading upload: "+err.Error())
		return
	}

	outcome, err := s.adj.ProcessWish(r.Context(), doorID, audio,
		header.Filename, header.Header.Get("Content-Type"),
		r.FormValue("door_rules"))
	if err != nil {
		respondError(w, err)
		return
	}

	if s.wishes != nil {
		entry := wishlog.Entry{
			Object:     outcome.Verdict.ObjectName,
			Door:       doorID,
			Transcript: outcome.Transcript,
			Granted:    outcome.Verdict.DoorOpen,
			Time:       time.Now(),
		}
		if err := s.wishes.Append(r.Context(), entry); err != nil {
			s.logger.Warn("recording wish failed", "error", err)
		}
	}

	respondJSON(w, http.StatusOK, outcome)
}

// handleIntro serves the opening narration, which carries the first door's
// most cryptic clue. The clip is synthesized once and reused; the text always
// comes back so the client can subtitle it.
func (s *Server) handleIntro(w http.ResponseWriter, r *http.Request) {
	clue, err := s.firstClue(r.Context(), 1)
	if err != nil {
		respondErrorKind(w, game.KindInternal, err.Error())
		return
	}
	text := game.IntroLine(clue)
	resp := narrationResponse{Subtitle: text}
	if url, ok := s.cache.Lookup(introClipName); ok {
		resp.AudioURL = url
	} else if url, err := s.adj.SynthesizeClipNamed(r.Context(), introClipName, text); err != nil {
		s.logger.Warn("intro synthesis failed", "error", err)
	} else {
		resp.AudioURL = url
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleRoomTransition serves the narration for arriving at a door, with the
// target door's most cryptic clue folded in.
func (s *Server) handleRoomTransition(w http.ResponseWriter, r *http.Request) {
	doorID, err := doorIDParam(r)
	if err != nil {
		respondErrorKind(w, game.KindBadRequest, err.Error())
		return
	}
	clue, err := s.firstClue(r.Context(), doorID)
	if err != nil {
		respondErrorKind(w, game.KindBadRequest, err.Error())
		return
	}

	text := game.TransitionLine(doorID, clue)
	resp := narrationResponse{Subtitle: text}
	name := fmt.Sprintf("transition_%d.%s", doorID, s.adj.AudioFormat())
	if url, ok := s.cache.Lookup(name); ok {
		resp.AudioURL = url
	} else if url, err := s.adj.SynthesizeClipNamed(r.Context(), name, text); err != nil {
		s.logger.Warn("transition synthesis failed", "error", err, "door", doorID)
	} else {
		resp.AudioURL = url
	}
	respondJSON(w, http.StatusOK, resp)
}

// firstClue returns the most cryptic clue of the given door, installing a
// fresh rule set first when none exists yet.
func (s *Server) firstClue(ctx context.Context, doorID int) (string, error) {
	if !s.session.HasRules() {
		s.installFreshRules(ctx)
	}
	doors := s.session.Rules()
	if doorID < 1 || doorID > len(doors) {
		return "", fmt.Errorf("%w: %d of %d", game.ErrDoorOutOfRange, doorID, len(doors))
	}
	clues := doors[doorID-1].Clues
	if len(clues) == 0 {
		return "", fmt.Errorf("door %d has no clues", doorID)
	}
	return clues[0], nil
}

// handleReset wipes the run: session state, wish log, and cached narration.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	if s.wishes != nil {
		if err := s.wishes.Clear(r.Context()); err != nil {
			s.logger.Warn("clearing wish log failed", "error", err)
		}
	}
	if err := s.cache.Clear(); err != nil {
		s.logger.Warn("clearing audio cache failed", "error", err)
	}
	observe.Logger(r.Context()).Info("run reset")
	respondJSON(w, http.StatusOK, map[string]string{"message": "The dream begins again. The doors remember nothing."})
}

// handleListWishes returns the adjudication log, oldest first.
func (s *Server) handleListWishes(w http.ResponseWriter, r *http.Request) {
	if s.wishes == nil {
		respondJSON(w, http.StatusOK, []wishlog.Entry{})
		return
	}
	entries, err := s.wishes.List(r.Context())
	if err != nil {
		respondErrorKind(w, game.KindInternal, err.Error())
		return
	}
	if entries == nil {
		entries = []wishlog.Entry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

// doorIDParam parses the door_id query parameter.
func doorIDParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("door_id")
	if raw == "" {
		return 0, fmt.Errorf("door_id query parameter is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("door_id must be an integer")
	}
	return id, nil
}
