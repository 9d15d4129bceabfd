// Package config loads the engageboard configuration.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//	1. Default values
//	2. The first of config.yaml, configs/config.yaml, ../configs/config.yaml
//	3. Environment variables
//
// # Environment Variables
//
// Environment variables follow the pattern ENGAGE_<SECTION>_<KEY>:
//
//	ENGAGE_SERVER_PORT=8080
//	ENGAGE_LOGGING_LEVEL=debug
//	ENGAGE_ARCHIVE_DB_PATH=/var/lib/engageboard/runs.db
//	ENGAGE_SECURITY_RATE_LIMIT_RPS=5
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := cfg.ResolvePaths()
package config
