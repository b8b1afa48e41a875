// # Available Commands
//
//   - serve: Start the book catalog web server
//   - books list: Print the stored catalog as a table or JSON
//   - config show: Print the resolved configuration as YAML or JSON
//   - config validate: Check the configuration
//   - health: Check storage and fragments, locally or on a running server
//   - version: Show build information
//
// # Command Examples
//
//	// Serve on the production domain
//	knygynas serve --port 80 --domain http://books.final/
//
//	// Keep the data files in another directory
//	knygynas serve --data-dir /var/lib/knygynas
//
//	// Reload open pages while editing fragments
//	knygynas serve --hot-reload --log-level debug
//
//	// Dump the catalog as JSON
//	knygynas books list --format json
//
// # Configuration
//
// Commands read .knygynas.yml from the working directory, or the file named
// by --config or KNYGYNAS_CONFIG_FILE. Every key can be overridden with a
// KNYGYNAS_<SECTION>_<OPTION> environment variable.
package cmd
