package researcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scout/internal/retrievers"
)

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"alpha.md":  "notes about go channels",
		"beta.txt":  "notes about go schedulers",
		"empty.txt": "",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestResearchLocalCorpus(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	cfg.DocPath = writeCorpus(t)
	f := newFixture(t, cfg, nil)

	task := &Task{Query: "go runtime", ReportSource: SourceLocal, AgentRole: "preset"}
	got, err := f.conductor.ConductResearch(context.Background(), task)
	if err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	if !strings.Contains(got, "channels") || !strings.Contains(got, "schedulers") {
		t.Fatalf("corpus content missing from context: %q", got)
	}
	// Local research never touches the web.
	if len(f.scraper.urls) != 0 {
		t.Fatalf("local source must not scrape, scraped %v", f.scraper.urls)
	}
}

func TestResearchLocalCorpusMissingDocPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	cfg.DocPath = ""
	f := newFixture(t, cfg, nil)

	task := &Task{Query: "q", ReportSource: SourceLocal, AgentRole: "preset"}
	if _, err := f.conductor.ConductResearch(context.Background(), task); err == nil {
		t.Fatal("expected an error without a document path")
	}
}

func TestResearchSuppliedDocuments(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	f := newFixture(t, cfg, nil)

	task := &Task{
		Query:        "q",
		ReportSource: SourceDocs,
		AgentRole:    "preset",
		Documents: []Document{
			{URL: "doc://1", Title: "One", Content: "first supplied doc"},
			{URL: "doc://2", Title: "Two", Content: "second supplied doc"},
		},
	}
	got, err := f.conductor.ConductResearch(context.Background(), task)
	if err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	if !strings.Contains(got, "first supplied doc") {
		t.Fatalf("supplied documents missing from context: %q", got)
	}
}

func TestResearchSuppliedDocumentsEmpty(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	f := newFixture(t, cfg, nil)

	task := &Task{Query: "q", ReportSource: SourceDocs, AgentRole: "preset"}
	if _, err := f.conductor.ConductResearch(context.Background(), task); !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources for an empty corpus, got %v", err)
	}
}

func TestResearchHybridJoinsDocsAndWeb(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	cfg.DocPath = writeCorpus(t)
	f := newFixture(t, cfg, nil)

	task := &Task{Query: "go runtime", ReportSource: SourceHybrid, AgentRole: "preset"}
	got, err := f.conductor.ConductResearch(context.Background(), task)
	if err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	if !strings.Contains(got, "local documents") || !strings.Contains(got, "web sources") {
		t.Fatalf("hybrid context must label both halves: %q", got)
	}
	docsAt := strings.Index(got, "local documents")
	webAt := strings.Index(got, "web sources")
	if docsAt > webAt {
		t.Fatal("local documents must precede web sources")
	}
}

type azureStubLoader struct {
	docs []Document
	err  error
}

func (a *azureStubLoader) Load(context.Context) ([]Document, error) { return a.docs, a.err }

func TestResearchAzureBlobCorpus(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	f := newFixture(t, cfg, nil)
	f.conductor.blobs = &azureStubLoader{docs: []Document{
		{URL: "blob://report.md", Title: "Report", Content: "blob stored findings"},
	}}

	task := &Task{Query: "q", ReportSource: SourceAzure, AgentRole: "preset"}
	got, err := f.conductor.ConductResearch(context.Background(), task)
	if err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	if !strings.Contains(got, "blob stored findings") {
		t.Fatalf("blob corpus missing from context: %q", got)
	}
}

func TestResearchAzureWithoutLoader(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	f := newFixture(t, cfg, nil)

	task := &Task{Query: "q", ReportSource: SourceAzure, AgentRole: "preset"}
	if _, err := f.conductor.ConductResearch(context.Background(), task); err == nil {
		t.Fatal("expected an error without a blob loader")
	}
}

func TestQuickSearch(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"mcp", "tavily"}
	f := newFixture(t, cfg, nil)

	results, err := f.conductor.QuickSearch(context.Background(), "quick query")
	if err != nil {
		t.Fatalf("QuickSearch: %v", err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Href, "tavily.example") {
		t.Fatalf("results = %v", results)
	}
}

func TestQuickSearchZeroResultsBudget(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	cfg.MaxSearchResultsPerQuery = 0
	f := newFixture(t, cfg, nil)

	results, err := f.conductor.QuickSearch(context.Background(), "q")
	if err != nil || results != nil {
		t.Fatalf("expected nil, nil with a zero result budget, got %v, %v", results, err)
	}
}

func TestQuickSearchNoUsableRetriever(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"mcp"}
	f := newFixture(t, cfg, nil)
	f.conductor.buildRetriever = func(string, retrievers.Options) (retrievers.Retriever, error) {
		return nil, errors.New("unreachable")
	}

	if _, err := f.conductor.QuickSearch(context.Background(), "q"); err == nil {
		t.Fatal("expected an error when no retriever is usable")
	}
}
