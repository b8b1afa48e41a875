// Package internal contains the core implementation packages for knygynas.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - types: Book and Session records and the book form fields
//   - store: Whole-collection repositories backed by JSON files, memory or SQLite
//   - session: Cookie-bound visitor identity
//   - messages: Feedback message catalog
//   - renderer: Header and footer fragments composed around page bodies
//   - server: HTTP routes, handlers and graceful shutdown
//   - security: Response security headers and the per-request script nonce
//   - config: Configuration management with validation
//   - validation: Checks for operator-supplied URLs and hosts
//   - errors: Application errors and user-facing suggestions
//   - logging: Structured logging on log/slog
//   - monitoring: Prometheus metrics and health checks
//   - watcher: File system monitoring with debouncing
//   - livereload: WebSocket hub that reloads open pages
//   - version: Build information
//
// # Request Flow
//
// A request passes the chi middleware stack and the security headers, then
// resolves the visitor's session, reads the whole book collection, mutates
// it when the route is a write and renders the header, body and footer.
// Writes replace the entire collection; concurrent writers are last-writer-wins.
//
// In development the watcher reports fragment edits to the server, which
// reloads the renderer and asks the livereload hub to refresh open pages.
package internal
