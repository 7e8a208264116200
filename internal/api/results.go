package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ProjectApnapan/apnapan-pulse/internal/chart"
	"github.com/ProjectApnapan/apnapan-pulse/internal/ingest"
	"github.com/ProjectApnapan/apnapan-pulse/internal/report"
	"github.com/ProjectApnapan/apnapan-pulse/internal/session"
	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

const previewRows = 5

type constructScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

type resultsView struct {
	FileName         string                  `json:"file_name"`
	SchoolName       string                  `json:"school_name,omitempty"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Students         int                     `json:"students"`
	Overall          *float64                `json:"overall"`
	PerformanceLevel string                  `json:"performance_level,omitempty"`
	Highest          *string                 `json:"highest"`
	Lowest           *string                 `json:"lowest"`
	Constructs       []constructScore        `json:"constructs"`
	Matched          []survey.ConstructMatch `json:"matched"`
	Columns          []string                `json:"columns"`
	TimestampColumns []string                `json:"timestamp_columns"`
	Preview          [][]string              `json:"preview"`
}

func (s *Server) summary(st *session.State) resultsView {
	res := st.Results
	v := resultsView{
		FileName:         st.FileName,
		SchoolName:       st.SchoolName,
		UpdatedAt:        st.UpdatedAt,
		Students:         res.Students,
		Overall:          res.Overall,
		Highest:          res.Highest,
		Lowest:           res.Lowest,
		Matched:          res.Matched,
		Columns:          res.Cleaned.Names(),
		TimestampColumns: ingest.TimestampColumns(res.Cleaned),
		Preview:          res.Cleaned.Head(previewRows).Records(),
	}
	if res.Overall != nil {
		v.PerformanceLevel = survey.PerformanceLevel(*res.Overall)
	}
	for _, a := range res.Averages {
		v.Constructs = append(v.Constructs, constructScore{Name: a.Name, Score: a.Value, Level: survey.ConstructLevel(a.Value)})
	}
	return v
}

// loadState writes 404 when the school has not analysed a file yet.
func (s *Server) loadState(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	st, err := s.deps.Sessions.Get(r.Context(), schoolID(r))
	if errors.Is(err, session.ErrNoState) || (err == nil && st.Results == nil) {
		writeError(w, http.StatusNotFound, "No analysis loaded. Upload or select a file first.")
		return nil, false
	}
	if err != nil {
		internalError(w, "error loading session", err)
		return nil, false
	}
	return st, true
}

func (s *Server) results(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.summary(st))
}

func (s *Server) matched(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matched": st.Results.Matched,
		"table":   st.Results.MatchedTable(),
	})
}

func (s *Server) breakdown(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	construct := r.URL.Query().Get("construct")
	group := r.URL.Query().Get("group")
	if _, ok := survey.LookupGroup(group); !ok {
		writeError(w, http.StatusBadRequest, "unknown group")
		return
	}
	bd, ok := st.Results.ConstructBreakdown(construct, group)
	if !ok {
		writeError(w, http.StatusNotFound, "No matching question or group column for this breakdown.")
		return
	}
	writeJSON(w, http.StatusOK, bd)
}

func (s *Server) distribution(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	g, ok := survey.LookupGroup(r.URL.Query().Get("group"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown group")
		return
	}
	col, ok := survey.GroupColumnFor(st.Results.Cleaned, g)
	if !ok {
		writeError(w, http.StatusNotFound, "No column found for this group.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"group":  g.Label,
		"column": col,
		"counts": survey.Distribution(st.Results.Cleaned, col),
	})
}

// chartPNG renders one chart: kind=pie&group=, kind=bar&construct=&group=
// or kind=levels&construct=&group=.
func (s *Server) chartPNG(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	construct, group := q.Get("construct"), q.Get("group")
	if _, ok := survey.LookupGroup(group); !ok {
		writeError(w, http.StatusBadRequest, "unknown group")
		return
	}

	var (
		png []byte
		err error
	)
	switch q.Get("kind") {
	case "pie":
		png, err = report.GroupPie(st.Results, group, group+" Distribution")
	case "bar":
		png, err = report.ConstructBar(st.Results, construct, group, construct+" by "+group)
	case "levels":
		png, err = report.LevelBreakdown(st.Results, construct, group, construct+" Responses by "+group)
	default:
		writeError(w, http.StatusBadRequest, "kind must be pie, bar or levels")
		return
	}
	if errors.Is(err, chart.ErrNoData) {
		writeError(w, http.StatusNotFound, "Not enough data for this chart.")
		return
	}
	if err != nil {
		internalError(w, "error rendering chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
