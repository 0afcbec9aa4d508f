// Package model defines the data structures shared across privacylens.
//
// This package contains the following main types:
//   - Finding: The classification result for one observed URL
//   - Cookie: A parsed cookie with derived first/third-party and tracking flags
//   - NetworkRequest: One deduplicated network request observed for a site
//   - Snapshot: A read-only copy of a monitoring session, used for scoring,
//     reporting and persistence
//   - ScoreResult: The privacy score, rating, factor breakdown and recommendations
//
// Design decision: Models live in their own package so that the classifier,
// session, score, controller and report packages can share them without
// import cycles. Every type is JSON serializable because snapshots are both
// written as reports and stored in the snapshot database.
package model
