package memory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// loadable extensions for the local corpus.
var documentExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".json": true,
	".csv":  true,
}

// LoadDocuments reads the local corpus under root into candidates, one per
// file. Unreadable files are skipped; an empty or missing root is an error
// because the caller explicitly asked for local documents.
func LoadDocuments(root string) ([]Candidate, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("document path %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("document path %s is not a directory", root)
	}

	var docs []Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !documentExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		content := strings.TrimSpace(string(data))
		if content == "" {
			return nil
		}
		docs = append(docs, Candidate{
			URL:     path,
			Title:   d.Name(),
			Content: content,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no loadable documents under %s", root)
	}
	return docs, nil
}
