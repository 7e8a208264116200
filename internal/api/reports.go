package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ProjectApnapan/apnapan-pulse/internal/report"
	"github.com/ProjectApnapan/apnapan-pulse/internal/session"
)

func (s *Server) reportInput(r *http.Request, st *session.State) report.Input {
	name, logo, err := s.deps.Accounts.SchoolDetails(r.Context(), st.SchoolID)
	if err != nil {
		zap.L().Warn("api: school details for report", zap.String("school_id", st.SchoolID), zap.Error(err))
		name = st.SchoolName
	}
	return report.Input{
		Title:      s.opts.ReportTitle,
		SchoolName: name,
		SchoolLogo: logo,
		BrandLogo:  s.opts.BrandLogo,
		Date:       s.now(),
		Results:    st.Results,
	}
}

func writePDF(w http.ResponseWriter, name string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, s)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	in := s.reportInput(r, st)
	var buf bytes.Buffer
	if err := report.Generate(&buf, in); err != nil {
		internalError(w, "error generating report", err)
		return
	}
	writePDF(w, fmt.Sprintf("Apnapan_Report_%s.pdf", fileSafe(in.SchoolName)), &buf)
}

func (s *Server) chartOptions(w http.ResponseWriter, r *http.Request) {
	construct := r.URL.Query().Get("construct")
	if construct == "" {
		writeError(w, http.StatusBadRequest, "construct is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"charts": report.ChartOptions(construct)})
}

func (s *Server) customReport(w http.ResponseWriter, r *http.Request) {
	var opts report.CustomOptions
	if err := decodeJSON(r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(opts.Charts) == 0 {
		writeError(w, http.StatusBadRequest, "select at least one chart")
		return
	}
	st, ok := s.loadState(w, r)
	if !ok {
		return
	}
	in := s.reportInput(r, st)
	var buf bytes.Buffer
	err := report.GenerateCustom(&buf, in, opts)
	switch {
	case errors.Is(err, report.ErrUnknownConstruct), errors.Is(err, report.ErrUnknownChart):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		internalError(w, "error generating report", err)
		return
	}
	writePDF(w, fmt.Sprintf("Apnapan_Custom_Report_%s_%s.pdf", fileSafe(opts.Construct), fileSafe(in.SchoolName)), &buf)
}
