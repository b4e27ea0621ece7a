// Package web serves the ROM shelf over HTTP: a JSON API for upload, list,
// delete and play, plus read-only static routes for covers, screenshots
// and recordings.
package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/jx"

	"github.com/valerio/jeebie-shelf/shelf/library"
	"github.com/valerio/jeebie-shelf/shelf/store"
)

//go:embed index.html
var indexHTML []byte

// MaxUploadBytes bounds an upload. The largest Game Boy Color cartridges
// are 8 MiB.
const MaxUploadBytes = 16 << 20

const shutdownTimeout = 5 * time.Second

type Server struct {
	lib *library.Library
	mux *http.ServeMux
}

func NewServer(lib *library.Library) *Server {
	s := &Server{lib: lib, mux: http.NewServeMux()}
	layout := lib.Store().Layout()

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /api/upload", s.handleUpload)
	s.mux.HandleFunc("GET /api/roms", s.handleList)
	s.mux.HandleFunc("DELETE /api/delete/{filename}", s.handleDelete)
	s.mux.HandleFunc("POST /api/play/{filename}", s.handlePlay)
	s.mux.HandleFunc("GET /api/play/{filename}", s.handlePlay)
	s.mux.HandleFunc("GET /api/sessions", s.handleSessions)

	s.mux.Handle("GET "+library.CoversURL, static(library.CoversURL, layout.Covers))
	s.mux.Handle("GET "+library.ScreenshotsURL, static(library.ScreenshotsURL, layout.Screenshots))
	s.mux.Handle("GET "+library.RecordingsURL, static(library.RecordingsURL, layout.Recordings))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	s.mux.ServeHTTP(rec, r)
	slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
}

// static serves files from dir under prefix. Directory listings are not
// served.
func static(prefix, dir string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: missing file field: %v", store.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	entry, coverURL, err := s.lib.Upload(hdr.Filename, file)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeOK(w, func(e *jx.Encoder) {
		strField(e, "filename", entry.Filename)
		strField(e, "cover", coverURL)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.lib.List()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, it := range items {
			encodeItem(e, it)
		}
		e.ArrEnd()
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.lib.Delete(r.PathValue("filename")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeOK(w, nil)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.lib.Play(r.PathValue("filename"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeOK(w, func(e *jx.Encoder) {
		strField(e, "ticket", ticket.ID.String())
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	tickets := s.lib.Sessions()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, t := range tickets {
			encodeTicket(e, t)
		}
		e.ArrEnd()
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "status", status, "error", err)
	} else {
		slog.Debug("Request rejected", "status", status, "error", err)
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("ok")
		e.Bool(false)
		strField(e, "error", err.Error())
		e.ObjEnd()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully. ready, when set, is called with the bound address once the
// listener is up.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, ready func(addr string)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	slog.Info("Web server listening", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr().String())
	}

	select {
	case err := <-errc:
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	slog.Info("Web server stopped")
	return nil
}
