package control

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Advancer is the director surface the server drives.
type Advancer interface {
	Next() bool
	Position() (int, int)
}

// Loader is the decode worker surface the server drives.
type Loader interface {
	Terminate()
	Pending() int
	Running() bool
}

// Deps wires the server to the running components. Nil fields disable the
// routes that need them.
type Deps struct {
	Director   Advancer
	Loader     Loader
	Resize     func(width, height int)
	Frames     *FrameStore
	Animations func() int
	Logger     *slog.Logger
}

// Status is the GET /status body.
type Status struct {
	Shown      int  `json:"shown"`
	Total      int  `json:"total"`
	Animations int  `json:"animations"`
	Pending    int  `json:"pending"`
	Running    bool `json:"running"`
	Frames     int  `json:"frames"`
}

func NewRouter(d Deps) *mux.Router {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handlers{Deps: d}

	r := mux.NewRouter()
	r.HandleFunc("/next", h.next).Methods("POST")
	r.HandleFunc("/viewport", h.viewport).Methods("PUT").Queries("w", "{w}", "h", "{h}")
	r.HandleFunc("/frame.png", h.frame).Methods("GET")
	r.HandleFunc("/status", h.status).Methods("GET")
	r.HandleFunc("/terminate", h.terminate).Methods("POST")
	return r
}

// Serve listens on addr until ctx is done.
func Serve(ctx context.Context, addr string, d Deps) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(d),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type handlers struct {
	Deps
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *handlers) next(w http.ResponseWriter, r *http.Request) {
	if h.Director == nil {
		http.Error(w, "no director", http.StatusServiceUnavailable)
		return
	}
	advanced := h.Director.Next()
	shown, total := h.Director.Position()
	writeJSON(w, http.StatusOK, map[string]any{"advanced": advanced, "shown": shown, "total": total})
}

func (h *handlers) viewport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	width, errW := strconv.Atoi(vars["w"])
	height, errH := strconv.Atoi(vars["h"])
	if errW != nil || errH != nil || width < 0 || height < 0 {
		http.Error(w, "w and h must be non-negative integers", http.StatusBadRequest)
		return
	}
	if h.Resize == nil {
		http.Error(w, "viewport is fixed", http.StatusServiceUnavailable)
		return
	}
	h.Resize(width, height)
	h.Logger.Info("viewport changed", "width", width, "height", height)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) frame(w http.ResponseWriter, r *http.Request) {
	var img *image.RGBA
	if h.Frames != nil {
		img = h.Frames.Snapshot()
	}
	if img == nil {
		http.Error(w, "no frame yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		h.Logger.Warn("frame encode failed", "err", err)
	}
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	var s Status
	if h.Director != nil {
		s.Shown, s.Total = h.Director.Position()
	}
	if h.Loader != nil {
		s.Pending = h.Loader.Pending()
		s.Running = h.Loader.Running()
	}
	if h.Animations != nil {
		s.Animations = h.Animations()
	}
	if h.Frames != nil {
		s.Frames = h.Frames.Count()
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *handlers) terminate(w http.ResponseWriter, r *http.Request) {
	if h.Loader == nil {
		http.Error(w, "no loader", http.StatusServiceUnavailable)
		return
	}
	h.Loader.Terminate()
	h.Logger.Info("loader terminated over control")
	w.WriteHeader(http.StatusAccepted)
}

// FrameStore keeps a copy of the last presented frame.
type FrameStore struct {
	mu    sync.Mutex
	last  *image.RGBA
	count int
}

// Store copies frame. It matches renderer.PresentFunc.
func (s *FrameStore) Store(frame *image.RGBA) error {
	if frame == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || s.last.Rect != frame.Rect {
		s.last = image.NewRGBA(frame.Rect)
	}
	copy(s.last.Pix, frame.Pix)
	s.count++
	return nil
}

// Snapshot returns a copy of the last frame, or nil before the first one.
func (s *FrameStore) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := image.NewRGBA(s.last.Rect)
	copy(out.Pix, s.last.Pix)
	return out
}

func (s *FrameStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
