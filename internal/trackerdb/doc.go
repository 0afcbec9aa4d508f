// Package trackerdb provides the tracker knowledge base: a static mapping
// from registrable domain to the company that operates it, what the domain is
// used for, and how common it is across sites.
//
// The table is built offline (see BuildFromRadar) and bundled as static data.
// A minimal seed table is embedded in the binary so the knowledge base is
// never empty, even when no refreshed table is available.
//
// Lookups match the exact domain first and then progressively strip leftmost
// labels, so cdn.doubleclick.net matches an entry for doubleclick.net. The
// search never reaches a bare public suffix such as "co.uk" or "com".
package trackerdb
