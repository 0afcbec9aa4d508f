// Package classifier turns an observed URL into a model.Finding.
//
// Classification is layered: the tracker knowledge base is consulted first
// (exact domain, then parent domains), and URLs without a match fall back to
// keyword heuristics on the URL itself. Every input, including empty or
// unparsable strings, produces a Finding with a non-empty rationale.
//
// Classification is pure and synchronous. A Classifier holds only an
// immutable knowledge base, so it is safe for concurrent use.
package classifier
