package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/crisislab/responder/internal/artifact"
	"github.com/crisislab/responder/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// The training report is a markdown table, so the table extension is on.
var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Server is the HTTP front end: submit a message, see predicted categories,
// browse corpus stats and the latest training report. The loaded bundle is
// process-wide immutable state shared read-only across requests.
type Server struct {
	db     *database.DB
	bundle *artifact.Bundle
	table  string
	pages  map[string]*template.Template
	mux    *http.ServeMux
}

// New creates a new Server around an already-loaded model bundle.
func New(db *database.DB, bundle *artifact.Bundle, table string) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"title":    titleize,
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "result.html", "report.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, bundle: bundle, table: table, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Serve starts the HTTP server on the given port and blocks.
func Serve(db *database.DB, bundle *artifact.Bundle, table string, port int) error {
	s, err := New(db, bundle, table)
	if err != nil {
		return err
	}
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.Handler())
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/go", s.handleGo)
	s.mux.HandleFunc("/report", s.handleReport)
	s.mux.HandleFunc("/classify", s.handleClassify)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	genres, err := s.db.GenreCounts(s.table)
	if err != nil {
		log.Printf("genre counts: %v", err)
	}
	categories, err := s.db.CategoryCounts(s.table)
	if err != nil {
		log.Printf("category counts: %v", err)
	}

	s.render(w, "index.html", map[string]any{
		"Genres":     genres,
		"Categories": categories,
		"LabelCount": len(s.bundle.Schema()),
	})
}

// handleGo classifies the submitted query and renders the result page. The
// route name mirrors the message form's target.
func (s *Server) handleGo(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	s.render(w, "result.html", map[string]any{
		"Query":   query,
		"Results": s.bundle.Classify(query),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetLatestTrainingRun()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{}
	if run != nil {
		data["Run"] = run
		data["ReportHTML"] = renderMarkdown(run.ReportMarkdown)
	}
	s.render(w, "report.html", data)
}

// handleClassify is the JSON boundary for programmatic callers.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		http.Error(w, `{"error": "expected JSON body with a non-empty message field"}`, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": req.Message,
		"labels":  s.bundle.Classify(req.Message),
	})
}

func (s *Server) render(w http.ResponseWriter, page string, data any) {
	tmpl, ok := s.pages[page]
	if !ok {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("rendering %s: %v", page, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

// titleize turns a snake_case category name into a display label.
func titleize(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
