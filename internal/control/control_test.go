package control

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeDirector struct {
	shown, total int
}

func (f *fakeDirector) Next() bool {
	if f.shown >= f.total {
		return false
	}
	f.shown++
	return true
}

func (f *fakeDirector) Position() (int, int) { return f.shown, f.total }

type fakeLoader struct {
	terminated bool
}

func (f *fakeLoader) Terminate()    { f.terminated = true }
func (f *fakeLoader) Pending() int  { return 3 }
func (f *fakeLoader) Running() bool { return !f.terminated }

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	dir := &fakeDirector{total: 1}
	loader := &fakeLoader{}
	frames := &FrameStore{}
	var resized image.Point

	r := NewRouter(Deps{
		Director:   dir,
		Loader:     loader,
		Resize:     func(w, h int) { resized = image.Pt(w, h) },
		Frames:     frames,
		Animations: func() int { return 2 },
	})

	rec := do(t, r, "POST", "/next")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /next: expected 200, got %d", rec.Code)
	}
	var next map[string]any
	json.NewDecoder(rec.Body).Decode(&next)
	if next["advanced"] != true {
		t.Errorf("Expected advanced, got %v", next)
	}
	rec = do(t, r, "POST", "/next")
	json.NewDecoder(rec.Body).Decode(&next)
	if next["advanced"] != false {
		t.Errorf("Expected exhausted list, got %v", next)
	}

	if rec := do(t, r, "GET", "/next"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /next: expected 405, got %d", rec.Code)
	}

	if rec := do(t, r, "PUT", "/viewport?w=320&h=240"); rec.Code != http.StatusNoContent {
		t.Errorf("PUT /viewport: expected 204, got %d", rec.Code)
	}
	if resized != image.Pt(320, 240) {
		t.Errorf("Expected resize to 320x240, got %v", resized)
	}
	if rec := do(t, r, "PUT", "/viewport?w=abc&h=240"); rec.Code != http.StatusBadRequest {
		t.Errorf("Bad width: expected 400, got %d", rec.Code)
	}

	if rec := do(t, r, "GET", "/frame.png"); rec.Code != http.StatusNotFound {
		t.Errorf("No frame: expected 404, got %d", rec.Code)
	}
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(2, 1, color.RGBA{G: 77, A: 255})
	frames.Store(img)
	rec = do(t, r, "GET", "/frame.png")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("GET /frame.png: got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	decoded, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if _, g, _, _ := decoded.At(2, 1).RGBA(); g>>8 != 77 {
		t.Errorf("Unexpected frame content %v", decoded.At(2, 1))
	}

	rec = do(t, r, "GET", "/status")
	var s Status
	if err := json.NewDecoder(rec.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	want := Status{Shown: 1, Total: 1, Animations: 2, Pending: 3, Running: true, Frames: 1}
	if s != want {
		t.Errorf("Expected %+v, got %+v", want, s)
	}

	if rec := do(t, r, "POST", "/terminate"); rec.Code != http.StatusAccepted {
		t.Errorf("POST /terminate: expected 202, got %d", rec.Code)
	}
	if !loader.terminated {
		t.Error("Terminate was not forwarded")
	}
}

func TestMissingDeps(t *testing.T) {
	r := NewRouter(Deps{})
	for _, tc := range []struct{ method, target string }{
		{"POST", "/next"},
		{"PUT", "/viewport?w=1&h=1"},
		{"POST", "/terminate"},
	} {
		if rec := do(t, r, tc.method, tc.target); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: expected 503, got %d", tc.method, tc.target, rec.Code)
		}
	}
	if rec := do(t, r, "GET", "/status"); rec.Code != http.StatusOK {
		t.Errorf("GET /status: expected 200, got %d", rec.Code)
	}
}

func TestFrameStoreCopies(t *testing.T) {
	var s FrameStore
	if s.Snapshot() != nil {
		t.Error("Empty store must return nil")
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	s.Store(img)
	img.Pix[0] = 200
	if snap := s.Snapshot(); snap.Pix[0] != 0 {
		t.Error("Store must copy the frame")
	}
}
