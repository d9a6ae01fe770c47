package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

// chromiumNode is one entry of the Chromium bookmark tree. Folders
// carry children; url nodes carry the bookmarked address.
type chromiumNode struct {
	Type     string         `json:"type"`
	Name     string         `json:"name"`
	URL      string         `json:"url"`
	Children []chromiumNode `json:"children"`
}

type chromiumFile struct {
	Roots map[string]chromiumNode `json:"roots"`
}

// ReadChromium parses a Chromium-family "Bookmarks" JSON export. The
// source label (e.g. "chrome", "edge") is attached to every candidate.
func ReadChromium(path, source string) ([]bookmark.Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bookmarks file: %w", err)
	}
	defer f.Close()
	return ParseChromium(f, source)
}

// ParseChromium decodes a Chromium bookmark tree from r. Folder paths
// are rebuilt by joining ancestor folder names with "/". Roots are
// walked in a stable order so the output does not depend on map
// iteration.
func ParseChromium(r io.Reader, source string) ([]bookmark.Candidate, error) {
	var file chromiumFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse chromium bookmarks: %w", err)
	}

	rootNames := make([]string, 0, len(file.Roots))
	for name := range file.Roots {
		rootNames = append(rootNames, name)
	}
	sort.Strings(rootNames)

	var out []bookmark.Candidate
	for _, name := range rootNames {
		root := file.Roots[name]
		walkChromium(root, nil, source, &out)
	}
	return out, nil
}

func walkChromium(node chromiumNode, path []string, source string, out *[]bookmark.Candidate) {
	switch node.Type {
	case "url":
		if node.URL == "" {
			return
		}
		*out = append(*out, bookmark.Candidate{
			URL:    node.URL,
			Name:   node.Name,
			Folder: strings.Join(path, "/"),
			Source: source,
		})
	case "folder":
		child := path
		if node.Name != "" {
			child = append(append([]string(nil), path...), node.Name)
		}
		for _, c := range node.Children {
			walkChromium(c, child, source, out)
		}
	}
}
