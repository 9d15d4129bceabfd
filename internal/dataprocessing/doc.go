// Package dataprocessing turns three already-parsed spreadsheet exports into a
// ranked engagement leaderboard.
//
// # Architecture
//
// The pipeline is a chain of small pure stages:
//
//  1. Resolver: maps inconsistent column headers onto semantic fields
//  2. Schema: checks that the mapped columns exist before any row is read
//  3. Coercion: turns raw cell text into numbers and calendar days
//  4. Aggregation: scores every post, groups by (page, day), picks each day's winner
//     and rolls everything up per page
//  5. Comparison: joins the prior-period rollup and follower counts, then ranks
//
// # Usage
//
//	result, err := dataprocessing.BuildLeaderboard(dataprocessing.Input{
//	    Performance:        perfTable,
//	    PerformanceMapping: perfMapping,
//	    Previous:           prevTable,
//	    PreviousMapping:    prevMapping,
//	})
//	if err != nil {
//	    var schemaErr *dataprocessing.SchemaError
//	    if errors.As(err, &schemaErr) {
//	        // schemaErr.Missing lists the unresolved fields
//	    }
//	}
//
// # Data Flow
//
//	Tables + Mappings → Validate → Coerce → Engagement → Daily → Overall → Compare → Followers → Rank
//
// # Error Handling
//
// Only unresolved performance columns stop a run. Everything else is recoverable and
// reported through Diagnostics:
//
//   - unparseable numbers read as 0
//   - unparseable dates keep the post out of the daily winner calculation
//   - unmatched joins produce null comparison values
//
// Nothing in this package touches the filesystem or keeps state between calls.
package dataprocessing
