// Package app wires the leaderboard web service together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from config.yaml and ENGAGE_* environment variables
//	2. Initialize the JSON logger and OpenTelemetry providers
//	3. Open the run archive (sqlite, or an in-memory store when disabled)
//	4. Build the leaderboard and health services
//	5. Set up chi middleware and the /api routes
//	6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests, closes the
// archive and flushes telemetry. Initialization errors are returned to the caller;
// the package never calls os.Exit.
package app
