// Package http implements the REST handlers of the leaderboard service.
//
// Handlers stay thin: they parse multipart uploads and query parameters, hand the
// work to services.LeaderboardService and render results with go-chi/render.
// Every failure goes through errors.ErrorHandler so clients always receive an
// RFC 7807 problem document.
//
// # Endpoints
//
//	POST /api/columns/detect              upload one table, get the proposed mapping
//	POST /api/leaderboards                upload tables and mapping, generate a run
//	GET  /api/leaderboards                list archived runs
//	GET  /api/leaderboards/{id}           one run with rows, daily breakdown and summary
//	DELETE /api/leaderboards/{id}         remove a run from the archive
//	GET  /api/leaderboards/{id}/export    download as csv or xlsx
//	GET  /api/health                      liveness
//	GET  /api/health/ready                readiness
//	GET  /api/version                     build information
//	GET  /api/metrics                     Prometheus metrics
package http
