package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hypnagogia/dreamkeeper/internal/audiocache"
	"github.com/hypnagogia/dreamkeeper/internal/game"
	"github.com/hypnagogia/dreamkeeper/internal/wishlog"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/judge"
	judgemock "github.com/hypnagogia/dreamkeeper/pkg/provider/judge/mock"
	"github.com/hypnagogia/dreamkeeper/pkg/provider/stt"
	sttmock "github.com/hypnagogia/dreamkeeper/pkg/provider/stt/mock"
	ttsmock "github.com/hypnagogia/dreamkeeper/pkg/provider/tts/mock"
)

const grantedBallReply = `{"object_name":"ball","hex_color":"#FF0000","scale":1.0,` +
	`"vfx_type":"none","twist":"none","door_open":true,` +
	`"drop_voice":"There it is.","congrats_voice":"Acceptable."}`

// testServer builds a Server over mock providers. The judge grants a red
// ball unless overridden through jp.
func testServer(t *testing.T, sp *sttmock.Provider, jp *judgemock.Provider) (*Server, http.Handler) {
	t.Helper()

	if sp == nil {
		sp = &sttmock.Provider{
			TranscribeFunc: func(ctx context.Context, req stt.Request) (string, error) {
				return "i wish for a red ball", nil
			},
		}
	}
	if jp == nil {
		jp = &judgemock.Provider{
			CompleteFunc: func(ctx context.Context, req judge.Request) ([]byte, error) {
				if req.SchemaName == "door_rules" {
					return []byte(`{"doors":[` +
						`{"law":"Must be red","clues":["r1","r2","r3"]},` +
						`{"law":"Must be edible","clues":["e1","e2","e3"]},` +
						`{"law":"Must be huge","clues":["h1","h2","h3"]}]}`), nil
				}
				return []byte(grantedBallReply), nil
			},
		}
	}

	session := game.NewSession()
	cache, err := audiocache.New(t.TempDir())
	if err != nil {
		t.Fatalf("audiocache.New: %v", err)
	}
	adj, err := game.NewAdjudicator(game.AdjudicatorConfig{
		STT:     sp,
		Judge:   jp,
		TTS:     &ttsmock.Provider{},
		Session: session,
		Cache:   cache,
		TempDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewAdjudicator: %v", err)
	}

	srv := New(ServerConfig{
		Session:     session,
		Adjudicator: adj,
		Rules:       game.NewRuleGenerator(jp, nil),
		Cache:       cache,
		WishLog:     wishlog.NewMemStore(),
		DoorCount:   3,
	})
	return srv, srv.Router()
}

func getJSON[T any](t *testing.T, h http.Handler, method, target string, wantStatus int) T {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("%s %s: status = %d, want %d; body %s",
			method, target, rec.Code, wantStatus, rec.Body.String())
	}
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func postWish(t *testing.T, h http.Handler, doorID, lawOverride string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("door_id", doorID); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	if lawOverride != "" {
		if err := mw.WriteField("door_rules", lawOverride); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	fw, err := mw.CreateFormFile("file", "wish.wav")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := io.WriteString(fw, "RIFFfakewavdata"); err != nil {
		t.Fatalf("writing file part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/process_wish", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetRulesGeneratesOnFirstCall(t *testing.T) {
	_, h := testServer(t, nil, nil)

	got := getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)
	if len(got.Doors) != 3 {
		t.Fatalf("doors = %d, want 3", len(got.Doors))
	}
	if got.Doors[0].Law != "Must be red" || got.CurrentDoor != 1 {
		t.Fatalf("rules = %+v", got)
	}

	// Second call returns the same installed set without regenerating.
	again := getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)
	if again.Doors[0].Law != got.Doors[0].Law {
		t.Fatal("rules changed between calls")
	}
}

func TestGetHintClimbsLadder(t *testing.T) {
	_, h := testServer(t, nil, nil)
	getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)

	first := getJSON[hintResponse](t, h, "GET", "/get_hint?door_id=1", http.StatusOK)
	if first.Hint != "r1" || first.Level != 0 || first.Remaining != 2 {
		t.Fatalf("first hint = %+v", first)
	}
	if first.AudioURL == "" {
		t.Error("hint has no audio URL")
	}

	second := getJSON[hintResponse](t, h, "GET", "/get_hint?door_id=1", http.StatusOK)
	if second.Hint != "r2" || second.Level != 1 || second.Remaining != 1 {
		t.Fatalf("second hint = %+v", second)
	}

	// Field names on the wire.
	req := httptest.NewRequest("GET", "/get_hint?door_id=2", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	for _, key := range []string{`"hint"`, `"hint_level"`, `"hints_remaining"`} {
		if !strings.Contains(rec.Body.String(), key) {
			t.Errorf("hint body missing %s: %s", key, rec.Body.String())
		}
	}
}

func TestGetHintValidation(t *testing.T) {
	_, h := testServer(t, nil, nil)

	// No rules installed yet.
	body := getJSON[errorBody](t, h, "GET", "/get_hint?door_id=1", http.StatusBadRequest)
	if body.Error.Kind != game.KindBadRequest {
		t.Fatalf("kind = %q", body.Error.Kind)
	}

	getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)

	for _, target := range []string{"/get_hint", "/get_hint?door_id=abc", "/get_hint?door_id=9"} {
		body := getJSON[errorBody](t, h, "GET", target, http.StatusBadRequest)
		if body.Error.Kind != game.KindBadRequest {
			t.Errorf("%s: kind = %q", target, body.Error.Kind)
		}
	}
}

func TestProcessWishHappyPath(t *testing.T) {
	srv, h := testServer(t, nil, nil)
	getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)

	rec := postWish(t, h, "1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}

	raw := rec.Body.Bytes()
	var out game.Outcome
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ObjectName != "ball" || !out.DoorOpen {
		t.Fatalf("verdict = %+v", out.Verdict)
	}
	if out.CurrentDoor != 2 {
		t.Errorf("CurrentDoor = %d, want 2", out.CurrentDoor)
	}
	if out.AudioURLDrop == "" {
		t.Error("no drop audio URL")
	}

	// The client reads the verdict and clip URLs from the top level.
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, key := range []string{"object_name", "door_open", "audio_url_drop", "audio_url"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing top-level %q", key)
		}
	}

	// The wish is logged.
	entries, err := srv.wishes.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Object != "ball" || !entries[0].Granted {
		t.Fatalf("wish log = %+v", entries)
	}

	// The clip is actually served.
	req := httptest.NewRequest("GET", out.AudioURL, nil)
	clipRec := httptest.NewRecorder()
	h.ServeHTTP(clipRec, req)
	if clipRec.Code != http.StatusOK {
		t.Errorf("GET %s: status = %d", out.AudioURL, clipRec.Code)
	}
}

func TestProcessWishSTTFailure(t *testing.T) {
	sp := &sttmock.Provider{
		TranscribeFunc: func(ctx context.Context, req stt.Request) (string, error) {
			return "", errors.New("service down")
		},
	}
	_, h := testServer(t, sp, nil)
	getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)

	rec := postWish(t, h, "1", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Kind != game.KindTranscription {
		t.Fatalf("kind = %q, want %q", body.Error.Kind, game.KindTranscription)
	}
}

func TestProcessWishMissingFile(t *testing.T) {
	_, h := testServer(t, nil, nil)
	getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("door_id", "1")
	mw.Close()

	req := httptest.NewRequest("POST", "/process_wish", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestIntroCarriesFirstClue(t *testing.T) {
	_, h := testServer(t, nil, nil)

	// No rules installed yet; the intro installs a set so it has a clue to
	// whisper.
	first := getJSON[narrationResponse](t, h, "GET", "/intro", http.StatusOK)
	if first.Subtitle == "" || first.AudioURL == "" {
		t.Fatalf("intro = %+v", first)
	}
	if !strings.Contains(first.Subtitle, "r1") {
		t.Errorf("intro subtitle missing door 1's first clue: %q", first.Subtitle)
	}

	second := getJSON[narrationResponse](t, h, "GET", "/intro", http.StatusOK)
	if second.AudioURL != first.AudioURL {
		t.Errorf("intro clip regenerated: %q vs %q", first.AudioURL, second.AudioURL)
	}
}

func TestRoomTransitionCarriesClue(t *testing.T) {
	_, h := testServer(t, nil, nil)

	got := getJSON[narrationResponse](t, h, "GET", "/room_transition?door_id=2", http.StatusOK)
	if got.Subtitle == "" || got.AudioURL == "" {
		t.Fatalf("transition = %+v", got)
	}
	if !strings.Contains(got.Subtitle, "e1") {
		t.Errorf("transition subtitle missing door 2's first clue: %q", got.Subtitle)
	}

	for _, target := range []string{"/room_transition", "/room_transition?door_id=9"} {
		body := getJSON[errorBody](t, h, "GET", target, http.StatusBadRequest)
		if body.Error.Kind != game.KindBadRequest {
			t.Errorf("%s: kind = %q", target, body.Error.Kind)
		}
	}
}

func TestResetRewindsRun(t *testing.T) {
	srv, h := testServer(t, nil, nil)
	getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)
	postWish(t, h, "1", "")
	getJSON[hintResponse](t, h, "GET", "/get_hint?door_id=1", http.StatusOK)

	got := getJSON[map[string]string](t, h, "POST", "/reset", http.StatusOK)
	if got["message"] == "" {
		t.Errorf("reset reply = %v, want a message field", got)
	}

	// Rules survive; pointer, history, and hint ladders rewind.
	if !srv.session.HasRules() {
		t.Error("rules did not survive reset")
	}
	if srv.session.CurrentDoor() != 1 {
		t.Errorf("CurrentDoor after reset = %d, want 1", srv.session.CurrentDoor())
	}
	entries, _ := srv.wishes.List(context.Background())
	if len(entries) != 0 {
		t.Errorf("wish log survived reset: %v", entries)
	}

	hint := getJSON[hintResponse](t, h, "GET", "/get_hint?door_id=1", http.StatusOK)
	if hint.Level != 0 {
		t.Errorf("hint level after reset = %d, want 0", hint.Level)
	}
}

func TestGenerateRulesInvalidatesClips(t *testing.T) {
	_, h := testServer(t, nil, nil)
	getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)

	hint := getJSON[hintResponse](t, h, "GET", "/get_hint?door_id=1", http.StatusOK)
	if hint.AudioURL == "" {
		t.Fatal("hint has no audio URL")
	}

	got := getJSON[rulesResponse](t, h, "POST", "/generate_rules", http.StatusOK)
	if len(got.Doors) != 3 || got.CurrentDoor != 1 {
		t.Fatalf("regenerated rules = %+v", got)
	}

	// The old clip must be gone.
	req := httptest.NewRequest("GET", hint.AudioURL, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("stale clip still served: status = %d", rec.Code)
	}

	// Hint ladder rewound with the new rules.
	fresh := getJSON[hintResponse](t, h, "GET", "/get_hint?door_id=1", http.StatusOK)
	if fresh.Level != 0 {
		t.Errorf("hint level after regenerate = %d, want 0", fresh.Level)
	}
}

func TestListWishes(t *testing.T) {
	_, h := testServer(t, nil, nil)
	getJSON[rulesResponse](t, h, "GET", "/get_rules", http.StatusOK)

	empty := getJSON[[]wishlog.Entry](t, h, "GET", "/wishes", http.StatusOK)
	if len(empty) != 0 {
		t.Fatalf("wishes before any play = %v", empty)
	}

	postWish(t, h, "1", "")
	got := getJSON[[]wishlog.Entry](t, h, "GET", "/wishes", http.StatusOK)
	if len(got) != 1 || got[0].Object != "ball" {
		t.Fatalf("wishes = %+v", got)
	}
}

func TestHealthEndpoints(t *testing.T) {
	_, h := testServer(t, nil, nil)

	for _, target := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", target, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}
