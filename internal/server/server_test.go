package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crisislab/responder/internal/artifact"
	"github.com/crisislab/responder/internal/classify"
	"github.com/crisislab/responder/internal/database"
	"github.com/crisislab/responder/internal/textproc"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ds := &database.Dataset{
		Categories: []string{"water", "food"},
		Records: []database.Record{
			{ID: 1, Message: "we need water to drink", Genre: "direct", Labels: []int{1, 0}},
			{ID: 2, Message: "children need food", Genre: "social", Labels: []int{0, 1}},
		},
	}
	if err := db.ReplaceMessageTable("messages", ds); err != nil {
		t.Fatalf("storing fixture: %v", err)
	}
	if _, err := db.InsertTrainingRun(database.TrainingRun{
		ModelPath:      "model.bin",
		LabelCount:     2,
		TrainCount:     8,
		TestCount:      2,
		MacroF1:        0.5,
		ReportMarkdown: "| category | precision |\n| --- | ---: |\n| water | 0.50 |\n",
	}); err != nil {
		t.Fatalf("recording training run: %v", err)
	}

	docs := []string{
		"we need water to drink",
		"send drinking water please",
		"we are hungry send food",
		"children need food to eat",
	}
	labels := [][]int{{1, 0}, {1, 0}, {0, 1}, {0, 1}}
	vec := textproc.NewVectorizer(1)
	vec.Fit(docs)
	model := classify.FitMultiLabel(vec.TransformAll(docs), labels, ds.Categories,
		classify.Hyperparams{Epochs: 40, LearningRate: 0.5, Seed: 123})
	bundle := &artifact.Bundle{Vectorizer: vec, Model: model}

	s, err := New(db, bundle, "messages")
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexPage(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Classify a disaster message") {
		t.Error("index page missing form heading")
	}
	if !strings.Contains(body, "Direct") || !strings.Contains(body, "Water") {
		t.Error("index page missing corpus stats")
	}
}

func TestIndexUnknownPathIs404(t *testing.T) {
	s := testServer(t)
	if rec := get(t, s, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGoClassifiesQuery(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/go?query=thirsty+people+need+drinking+water")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Water") || !strings.Contains(body, "Food") {
		t.Error("result page missing category chips")
	}
	if !strings.Contains(body, `class="positive"`) {
		t.Error("expected at least one positive prediction")
	}
}

func TestGoWithoutQueryRedirects(t *testing.T) {
	s := testServer(t)
	if rec := get(t, s, "/go"); rec.Code != http.StatusSeeOther {
		t.Errorf("expected redirect, got %d", rec.Code)
	}
}

func TestReportPage(t *testing.T) {
	s := testServer(t)
	rec := get(t, s, "/report")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// The stored markdown table is rendered to HTML.
	if !strings.Contains(rec.Body.String(), "<table>") {
		t.Error("report page did not render markdown")
	}
}

func TestClassifyJSON(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/classify",
		strings.NewReader(`{"message": "send water please"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Message string `json:"message"`
		Labels  []struct {
			Category string `json:"category"`
			Positive bool   `json:"positive"`
		} `json:"labels"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(resp.Labels) != 2 {
		t.Fatalf("expected 2 labels, got %v", resp.Labels)
	}
	if resp.Labels[0].Category != "water" {
		t.Errorf("expected schema order preserved, got %v", resp.Labels)
	}
}

func TestClassifyRejectsBadRequests(t *testing.T) {
	s := testServer(t)

	if rec := get(t, s, "/classify"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/classify", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	s := testServer(t)
	if rec := get(t, s, "/static/style.css"); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for stylesheet, got %d", rec.Code)
	}
}
