// Package services implements the business logic layer between the HTTP and CLI
// front ends and the leaderboard pipeline.
//
// # Services
//
//	- LeaderboardService: detects column mappings, loads uploads, runs the
//	  pipeline, archives results and exports them
//	- HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Services return *errors.AppError values that the HTTP layer maps to RFC 7807
// responses:
//
//	- SCHEMA when required performance columns cannot be mapped
//	- PARSING or UNSUPPORTED when an upload cannot be read
//	- NOT_FOUND for unknown run ids
//	- STORAGE when the archive fails
//
// # Testing
//
// The run store is an interface, so tests can use archive.MemoryStore or a
// testify mock:
//
//	store := archive.NewMemoryStore(10)
//	svc := services.NewLeaderboardService(store, logger)
//	run, err := svc.Generate(ctx, req)
package services
