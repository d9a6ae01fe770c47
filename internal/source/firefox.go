package source

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/droidnext/bookmark-geni-mcp/internal/bookmark"
)

// firefoxBookmarkType is the moz_bookmarks.type value for URL entries.
// Type 2 rows are folders, used only for path reconstruction.
const firefoxBookmarkType = 1

// ReadFirefox reads bookmarks from a Firefox places.sqlite database.
// The file is opened read-only and immutable so a running browser
// holding the write lock does not block the export.
func ReadFirefox(path, source string) ([]bookmark.Candidate, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&immutable=1", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open places database: %w", err)
	}
	defer db.Close()

	folders, err := firefoxFolders(db)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
SELECT b.title, b.parent, p.url
FROM moz_bookmarks b
JOIN moz_places p ON p.id = b.fk
WHERE b.type = ? AND p.url LIKE 'http%'
ORDER BY b.id`, firefoxBookmarkType)
	if err != nil {
		return nil, fmt.Errorf("query bookmarks: %w", err)
	}
	defer rows.Close()

	var out []bookmark.Candidate
	for rows.Next() {
		var (
			title  sql.NullString
			parent int64
			u      string
		)
		if err := rows.Scan(&title, &parent, &u); err != nil {
			return nil, fmt.Errorf("scan bookmark row: %w", err)
		}
		out = append(out, bookmark.Candidate{
			URL:    u,
			Name:   title.String,
			Folder: folderPath(folders, parent),
			Source: source,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return out, nil
}

type firefoxFolder struct {
	title  string
	parent int64
}

func firefoxFolders(db *sql.DB) (map[int64]firefoxFolder, error) {
	rows, err := db.Query(`SELECT id, title, parent FROM moz_bookmarks WHERE type = 2`)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	folders := make(map[int64]firefoxFolder)
	for rows.Next() {
		var (
			id     int64
			title  sql.NullString
			parent int64
		)
		if err := rows.Scan(&id, &title, &parent); err != nil {
			return nil, fmt.Errorf("scan folder row: %w", err)
		}
		folders[id] = firefoxFolder{title: title.String, parent: parent}
	}
	return folders, rows.Err()
}

// folderPath walks parent links up to the root, skipping the unnamed
// root containers Firefox keeps at the top of the tree.
func folderPath(folders map[int64]firefoxFolder, id int64) string {
	var parts []string
	for depth := 0; depth < 64; depth++ {
		f, ok := folders[id]
		if !ok {
			break
		}
		if f.title != "" {
			parts = append([]string{f.title}, parts...)
		}
		id = f.parent
	}
	return strings.Join(parts, "/")
}
