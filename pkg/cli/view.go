package cli

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/mchmarny/cargoscan/pkg/auth"
	"github.com/mchmarny/cargoscan/pkg/data"
	"github.com/mchmarny/cargoscan/pkg/manifest"
	"github.com/mchmarny/cargoscan/pkg/tabular"
)

const (
	uploadFieldName   = "file"
	recentListLimit   = 10
	termJoinSeparator = "; "
)

var exportFormats = map[string]tabular.Format{
	"excel": tabular.FormatXLSX,
	"xlsx":  tabular.FormatXLSX,
	"csv":   tabular.FormatCSV,
	"pdf":   tabular.FormatPDF,
}

func joinTerms(terms []string) string {
	return strings.Join(terms, termJoinSeparator)
}

func (s *server) render(w http.ResponseWriter, status int, name string, d map[string]any) {
	if d == nil {
		d = map[string]any{}
	}
	d["version"] = version
	d["commit"] = commit
	d["build_date"] = date

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, d); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
	}
}

func (s *server) loginViewHandler(w http.ResponseWriter, r *http.Request) {
	if s.loggedIn(r) {
		http.Redirect(w, r, "/index", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login", nil)
}

func (s *server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "login", map[string]any{"err": "invalid form"})
		return
	}

	if !s.creds.Check(r.PostForm.Get("username"), r.PostForm.Get("password")) {
		slog.Warn("failed login", "remote", r.RemoteAddr)
		s.render(w, http.StatusUnauthorized, "login", map[string]any{"err": "invalid credentials"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    s.sessions.Create(),
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

func (s *server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie(auth.CookieName); err == nil {
		s.sessions.Delete(ck.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) indexData(msg string) map[string]any {
	d := map[string]any{
		"operator": s.creds.Username,
		"err":      msg,
	}
	list, err := data.ListAnalyses(s.db, recentListLimit)
	if err != nil {
		slog.Error("failed to list analyses", "error", err)
		list = []*data.AnalysisSummary{}
	}
	d["analyses"] = list
	return d
}

func (s *server) indexViewHandler(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", s.indexData(r.URL.Query().Get("err")))
}

// uploadName reduces a client supplied file name to its base name.
func uploadName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}

func (s *server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		s.render(w, http.StatusRequestEntityTooLarge, "index", s.indexData("file too large"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.render(w, http.StatusRequestEntityTooLarge, "index", s.indexData("file too large"))
			return
		}
		s.render(w, http.StatusBadRequest, "index", s.indexData("no file selected"))
		return
	}
	defer file.Close()
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	name := uploadName(header.Filename)
	if name == "" {
		s.render(w, http.StatusBadRequest, "index", s.indexData("no file selected"))
		return
	}

	t, err := tabular.Read(file, name)
	if err == nil {
		var a *data.Analysis
		if a, err = runAnalysis(s.db, s.currentAnalyzer(), t, true); err == nil {
			http.Redirect(w, r, "/results/"+a.ID, http.StatusSeeOther)
			return
		}
	}

	status := statusFor(err)
	slog.Error("upload analysis failed", "file", name, "status", status, "error", err)
	msg := "analysis failed"
	if status == http.StatusUnprocessableEntity {
		msg = err.Error()
	}
	s.render(w, status, "index", s.indexData(msg))
}

func (s *server) resultsViewHandler(w http.ResponseWriter, r *http.Request) {
	a, err := getAnalysis(s.db, r.PathValue("id"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("failed to get analysis", "id", r.PathValue("id"), "error", err)
		}
		s.render(w, status, "index", s.indexData("analysis not available"))
		return
	}

	s.render(w, http.StatusOK, "results", map[string]any{
		"operator":  s.creds.Username,
		"analysis":  a,
		"columns":   tabular.Header(a.Result),
		"rows":      tabular.Rows(a.Result),
		"anomalies": a.Result.Anomalies,
		"hits":      a.Result.RuleHits,
	})
}

func (s *server) exportHandler(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormats[strings.ToLower(r.PathValue("format"))]
	if !ok {
		http.Error(w, "unsupported export format", http.StatusNotFound)
		return
	}

	a, err := getAnalysis(s.db, r.PathValue("id"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			slog.Error("failed to get analysis", "id", r.PathValue("id"), "error", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	writeExport(w, exportFileName(a, "", format), format, a.Result)
}

// writeExport renders res in full before sending it, so a failed export is a
// 500 instead of a truncated download.
func writeExport(w http.ResponseWriter, name string, format tabular.Format, res *manifest.RankedResult) {
	var buf bytes.Buffer
	if err := tabular.Write(&buf, format, res); err != nil {
		slog.Error("failed to write export", "file", name, "format", format, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", tabular.ContentType(format))
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to send export", "file", name, "error", err)
	}
}

// statusFor maps an error to the HTTP status returned to the client.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case manifest.IsFormatError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, data.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
