package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	astar "github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/internal/store"
)

var validate = validator.New()

// maxBodyBytes bounds request bodies; a search request is a few dozen bytes.
const maxBodyBytes = 64 << 10

type point = [3]int

type searchRequest struct {
	Start     []int  `json:"start" validate:"required,min=2,max=3"`
	End       []int  `json:"end" validate:"required,min=2,max=3"`
	Heuristic string `json:"heuristic"`
}

type searchResponse struct {
	Points   []point `json:"points"`
	Cost     float64 `json:"cost"`
	Expanded int     `json:"expanded"`
}

type gridSummary struct {
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Layers int    `json:"layers"`
}

type gridDump struct {
	Rows   int `json:"rows"`
	Cols   int `json:"cols"`
	Layers int `json:"layers"`
	Map    any `json:"map"` // rows of weights; one such matrix per layer on 3D grids
}

type snapshot struct {
	Session string  `json:"session"`
	Step    int     `json:"step"`
	State   string  `json:"state"`
	Current point   `json:"current"`
	Start   point   `json:"start"`
	Goal    point   `json:"goal"`
	Open    []point `json:"open"`
	Closed  []point `json:"closed"`
	Path    []point `json:"path,omitempty"`
	Cost    float64 `json:"cost,omitempty"`
}

func (s *Server) handleListGrids(w http.ResponseWriter, r *http.Request) {
	out := make([]gridSummary, 0, len(s.grids))
	for _, name := range s.names() {
		g := s.grids[name].grid
		out = append(out, gridSummary{Name: name, Rows: g.Rows, Cols: g.Cols, Layers: g.Layers})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}
	weights := entry.engine.Weights()
	dump := gridDump{Rows: weights.Rows(), Cols: weights.Cols(), Layers: weights.Layers()}
	if weights.Layers() == 1 {
		dump.Map = weights.Layer(0)
	} else {
		layers := make([][][]float64, weights.Layers())
		for l := range layers {
			layers[l] = weights.Layer(l)
		}
		dump.Map = layers
	}
	writeJSON(w, http.StatusOK, dump)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}
	start, end, heuristic, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}

	began := time.Now()
	path, err := entry.engine.Search(start, end, heuristic)
	s.record(r, store.SearchRecord{
		Grid:      chi.URLParam(r, "name"),
		Start:     start,
		End:       end,
		Heuristic: heuristic.String(),
		Status:    statusOf(err).String(),
		Cost:      costOf(path, err),
		Expanded:  expandedOf(path, err),
		Elapsed:   time.Since(began),
	})

	var searchErr *astar.SearchError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, searchResponse{
			Points:   toPoints(path.Points),
			Cost:     path.Cost,
			Expanded: path.Expanded,
		})
	case errors.Is(err, astar.ErrExhausted):
		s.log.Error("search exhausted", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	case errors.As(err, &searchErr):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleStepperInit(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.lookup(w, r)
	if !ok {
		return
	}
	start, end, heuristic, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}

	sess := &session{
		id:      uuid.NewString()[:12],
		stepper: entry.engine.NewStepper(start, end, heuristic),
		started: time.Now(),
	}
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	s.sessions[name] = sess
	s.mu.Unlock()
	s.log.Debug("stepper session started",
		zap.String("grid", name),
		zap.String("session", sess.id),
		zap.Stringer("start", sess.stepper.Start()),
		zap.Stringer("goal", sess.stepper.Goal()))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, toSnapshot(sess))
}

func (s *Server) handleStepperNext(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookup(w, r); !ok {
		return
	}
	s.mu.Lock()
	sess, ok := s.sessions[chi.URLParam(r, "name")]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusBadRequest, "stepper not initialized")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.stepper.Status().Done() && sess.stepper.Step().Done() {
		s.log.Debug("stepper session finished",
			zap.String("session", sess.id),
			zap.Stringer("status", sess.stepper.Status()),
			zap.Int("steps", sess.stepper.Iterations()),
			zap.Duration("elapsed", time.Since(sess.started)))
	}
	writeJSON(w, http.StatusOK, toSnapshot(sess))
}

// lookup resolves the {name} URL parameter, writing a 404 when unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*gridEntry, bool) {
	name := chi.URLParam(r, "name")
	entry, ok := s.grids[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown grid %q", name))
	}
	return entry, ok
}

func (s *Server) decodeSearch(w http.ResponseWriter, r *http.Request) (start, end astar.Point, h astar.Heuristic, ok bool) {
	var req searchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h = s.heuristic
	if req.Heuristic != "" {
		var err error
		if h, err = astar.ParseHeuristic(req.Heuristic); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	return toPoint(req.Start), toPoint(req.End), h, true
}

func (s *Server) record(r *http.Request, rec store.SearchRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.Record(r.Context(), rec); err != nil {
		s.log.Warn("record search failed", zap.String("grid", rec.Grid), zap.Error(err))
	}
}

func toSnapshot(sess *session) snapshot {
	st := sess.stepper
	snap := st.Snapshot()
	out := snapshot{
		Session: sess.id,
		Step:    snap.StepIndex,
		State:   snap.Status.String(),
		Current: fromPoint(snap.Current),
		Start:   fromPoint(st.Start()),
		Goal:    fromPoint(st.Goal()),
		Open:    toPoints(snap.Open),
		Closed:  toPoints(snap.Closed),
	}
	if snap.Path != nil {
		out.Path = toPoints(snap.Path)
		out.Cost = snap.Cost
	}
	return out
}

func toPoint(v []int) astar.Point {
	p := astar.P2(v[0], v[1])
	if len(v) == 3 {
		p.Layer = v[2]
	}
	return p
}

func fromPoint(p astar.Point) point { return point{p.Row, p.Col, p.Layer} }

func toPoints(ps []astar.Point) []point {
	out := make([]point, len(ps))
	for i, p := range ps {
		out[i] = fromPoint(p)
	}
	return out
}

func statusOf(err error) astar.Status {
	var searchErr *astar.SearchError
	if errors.As(err, &searchErr) {
		return searchErr.Status
	}
	return astar.Succeeded
}

func costOf(path astar.Path, err error) *float64 {
	if err != nil {
		return nil
	}
	return &path.Cost
}

func expandedOf(path astar.Path, err error) int {
	var searchErr *astar.SearchError
	if errors.As(err, &searchErr) {
		return searchErr.Expanded
	}
	return path.Expanded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
