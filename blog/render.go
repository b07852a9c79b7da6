package blog

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/yusong-shen/multi-user-blog/internal/logutil"
	"github.com/yusong-shen/multi-user-blog/session"
)

type (
	params map[string]interface{}
)

var (
	//go:embed templates/*.html
	templateFS embed.FS

	pages = template.Must(template.New("").Funcs(template.FuncMap{
		"lines": func(s string) []string {
			return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
		},
	}).ParseFS(templateFS, "templates/*.html"))
)

// render executes the named page, the current user (if any) is always
// available as .User.
func render(w http.ResponseWriter, r *http.Request, name string, p params) {
	renderStatus(w, r, http.StatusOK, name, p)
}

func renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, p params) {
	if p == nil {
		p = params{}
	}
	if u, ok := session.UserFrom(r.Context()); ok {
		p["User"] = u
	}
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, p); err != nil {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Err(err).Str("template", name).Msg("Unable to render page")
		http.Error(w, "unable to render page, check logs for more information", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
