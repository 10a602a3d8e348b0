// Package web serves the built site locally for preview, rebuilding on
// file changes and exposing search over cached posts.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/mux"

	"github.com/hollowware/ghostsite/internal/build"
	"github.com/hollowware/ghostsite/internal/config"
	"github.com/hollowware/ghostsite/internal/logger"
	"github.com/hollowware/ghostsite/internal/search"
	"github.com/hollowware/ghostsite/internal/site"
)

const rebuildDebounce = 500 * time.Millisecond

// Server is the local preview server.
type Server struct {
	cfg     *config.Config
	builder *build.Builder
	idx     *search.Index
	log     *logger.Logger

	mu        sync.RWMutex
	lastBuild time.Time
	site      *site.Site
}

// NewServer creates a preview server with an in-memory search index.
func NewServer(cfg *config.Config, builder *build.Builder, log *logger.Logger) (*Server, error) {
	idx, err := search.InMemory()
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:     cfg,
		builder: builder,
		idx:     idx,
		log:     log,
	}, nil
}

// Run builds the site, watches the source directories for changes, and
// serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.rebuild(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.watchDirs(watcher); err != nil {
		return err
	}
	go s.watchLoop(ctx, watcher)

	addr := fmt.Sprintf("%s:%d", s.cfg.Serve.Host, s.cfg.Serve.Port)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("preview server running", "addr", "http://"+addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Handler returns the preview routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/search", s.handleSearch).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(s.handleStatic)
	return r
}

// rebuild runs a full build and refreshes the search index.
func (s *Server) rebuild(ctx context.Context) error {
	built, err := s.builder.Build(ctx)
	if err != nil {
		return err
	}

	if err := s.idx.Rebuild(built.Posts); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}

	s.mu.Lock()
	s.site = built
	s.lastBuild = time.Now()
	s.mu.Unlock()

	return nil
}

func (s *Server) watchDirs(watcher *fsnotify.Watcher) error {
	dirs := []string{
		s.cfg.Build.LayoutsDir,
		s.cfg.Build.StaticDir,
		s.cfg.Build.ContentDir,
	}

	for _, root := range dirs {
		if root == "" {
			continue
		}
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if werr := watcher.Add(path); werr != nil {
					s.log.Warn("cannot watch directory", "dir", path, "error", werr)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
		s.log.Debug("watching", "dir", root)
	}

	return nil
}

// watchLoop debounces filesystem events into rebuilds.
func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			// New subdirectories are not watched automatically.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					watcher.Add(event.Name)
				}
			}

			s.log.Debug("change detected", "path", event.Name, "op", event.Op.String())

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(rebuildDebounce, func() {
				s.log.Info("rebuilding after change")
				if err := s.rebuild(ctx); err != nil {
					s.log.Error("rebuild failed", "error", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", "error", err)
		}
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "missing query parameter q", http.StatusBadRequest)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			http.Error(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := s.idx.Search(query, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("search failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

// handleStatus reports the last build time and per-collection freshness;
// the reload poller compares lastBuild between requests.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	freshness := make(map[string]string)
	if s.site != nil {
		for name, fr := range s.site.Freshness {
			freshness[name] = fr.String()
		}
	}

	indexed, _ := s.idx.Count()

	writeJSON(w, map[string]interface{}{
		"lastBuild": s.lastBuild.Format(time.RFC3339),
		"freshness": freshness,
		"indexed":   indexed,
	})
}

// handleStatic serves the output directory with caching disabled so edits
// show up on refresh.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	fs := http.FileServer(http.Dir(s.cfg.Build.OutputDir))
	fs.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
