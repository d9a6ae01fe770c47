// Package source parses browser bookmark exports into enrichment
// candidates. Chromium-family browsers store bookmarks as a JSON tree;
// Firefox keeps them in the places.sqlite database.
package source
