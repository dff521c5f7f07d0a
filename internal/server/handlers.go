package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/matzehuels/okrtree/pkg/discussion"
	"github.com/matzehuels/okrtree/pkg/errors"
	"github.com/matzehuels/okrtree/pkg/graph"
	"github.com/matzehuels/okrtree/pkg/okr"
	"github.com/matzehuels/okrtree/pkg/pipeline"
	"github.com/matzehuels/okrtree/pkg/render/sink"
	"github.com/matzehuels/okrtree/pkg/source"
)

// layoutRequest is the body of the stateless layout and render routes.
// Context, when present, replaces the viewer, roster and filter carried
// in Options.
type layoutRequest struct {
	Records []okr.Record     `json:"records"`
	Context *graph.Context   `json:"context,omitempty"`
	Options pipeline.Options `json:"options"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if snap, ok := s.board.Current(); ok {
		resp["board_version"] = snap.Version
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestOptions overlays the request's options on the server defaults.
func (s *Server) requestOptions(req layoutRequest) pipeline.Options {
	opts := req.Options
	if opts.Geometry == nil {
		opts.Geometry = s.cfg.Options.Geometry
	}
	if opts.VizType == "" {
		opts.VizType = s.cfg.Options.VizType
	}
	opts.Strict = opts.Strict || s.cfg.Options.Strict
	opts.Decorators = s.cfg.Options.Decorators
	opts.Logger = s.log
	if c := req.Context; c != nil {
		opts.Viewer = c.Viewer
		opts.Users = c.Users
		opts.TeamMembers = c.TeamMembers
		opts.Filter = c.Filter
	}
	return opts
}

// handleLayout lays out the posted records and returns the positioned
// forest. ?flow=1 returns the React Flow shape instead.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := s.requestOptions(req)
	l, err := s.runner.ComputeLayout(r.Context(), req.Records, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("flow") != "" {
		s.writeFlow(w, r, l)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// handleRender lays out the posted records and returns one artifact.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := s.requestOptions(req)
	format := formatParam(r, opts)
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}

	l, err := s.runner.ComputeLayout(r.Context(), req.Records, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeArtifact(w, r, l, opts, format)
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.board.Current()
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "board has not been computed yet"))
		return
	}
	if r.URL.Query().Get("flow") != "" {
		s.writeFlow(w, r, snap.Layout)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleBoardRender(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.board.Current()
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "board has not been computed yet"))
		return
	}
	opts := s.cfg.Options
	opts.Logger = s.log
	format := formatParam(r, opts)
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Formats = []string{format}
	if t := r.URL.Query().Get("title"); t != "" {
		opts.Title = t
	}
	s.writeArtifact(w, r, snap.Layout, opts, format)
}

// handleBoardRoots lists the top-level objectives of the board's records.
func (s *Server) handleBoardRoots(w http.ResponseWriter, _ *http.Request) {
	roots := okr.Roots(s.board.Records())
	if roots == nil {
		roots = []okr.Record{}
	}
	writeJSON(w, http.StatusOK, roots)
}

func (s *Server) handleBoardRecords(w http.ResponseWriter, r *http.Request) {
	var records []okr.Record
	if err := decodeJSON(r, &records); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondSnapshot(w, r)(s.board.SetRecords(r.Context(), records))
}

func (s *Server) handleBoardContext(w http.ResponseWriter, r *http.Request) {
	var c graph.Context
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondSnapshot(w, r)(s.board.SetContext(r.Context(), c))
}

func (s *Server) handleBoardRoot(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Root string `json:"root"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondSnapshot(w, r)(s.board.SetRoot(r.Context(), body.Root))
}

func (s *Server) handleBoardRefresh(w http.ResponseWriter, r *http.Request) {
	s.respondSnapshot(w, r)(s.board.Refresh(r.Context()))
}

func (s *Server) respondSnapshot(w http.ResponseWriter, r *http.Request) func(pipeline.Snapshot, error) {
	return func(snap pipeline.Snapshot, err error) {
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// handleBoardEvents streams every published snapshot as server-sent
// events. The current snapshot, if any, is sent first.
func (s *Server) handleBoardEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "streaming not supported"))
		return
	}
	updates, cancel := s.board.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	var last uint64
	if snap, ok := s.board.Current(); ok {
		if err := writeEvent(w, snap); err != nil {
			return
		}
		last = snap.Version
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-updates:
			if !open {
				return
			}
			if snap.Version <= last {
				continue
			}
			if err := writeEvent(w, snap); err != nil {
				return
			}
			last = snap.Version
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap pipeline.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: layout\ndata: %s\n\n", snap.Version, data)
	return err
}

// handleDiscussions lists weekly discussion forms under ?filter=.
func (s *Server) handleDiscussions(w http.ResponseWriter, r *http.Request) {
	f, err := discussion.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.cfg.Source == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no source configured"))
		return
	}
	forms, err := source.Forms(r.Context(), s.cfg.Source)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if forms == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "source %s has no discussion forms", s.cfg.Source.Name()))
		return
	}

	counts := make(map[string]int, len(discussion.Filters))
	for k, v := range discussion.Counts(forms) {
		counts[string(k)] = v
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"filter": f,
		"counts": counts,
		"rows":   discussion.View(forms, f, s.cfg.Now()),
	})
}

func formatParam(r *http.Request, opts pipeline.Options) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	if len(opts.Formats) > 0 {
		return opts.Formats[0]
	}
	return pipeline.FormatSVG
}

func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, l graph.Layout, opts pipeline.Options, format string) {
	artifacts, err := s.runner.Render(r.Context(), l, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) writeFlow(w http.ResponseWriter, r *http.Request, l graph.Layout) {
	data, err := sink.RenderJSON(l, sink.WithRoster())
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode layout"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
