// Package store groups the bookmark.DocumentStore backends. Each
// backend lives in its own subpackage so callers only link the driver
// they configure.
package store
