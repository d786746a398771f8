// Package logging provides opt-in file-based logging with rotation for the
// indexing engine. When --debug is set, comprehensive logs are written to
// ~/.searchengine/logs/ for debugging and troubleshooting.
//
// By default (without --debug), logging is minimal and goes to stderr only.
package logging
