// Package cache manages repository databases and checkouts for git sources.
//
// # Identity
//
// Every remote is keyed by an identity derived from its canonical URL
// (see Canonicalize and Ident), so https://github.com/Org/Repo.git/ and
// git://github.com/org/repo share one cache entry:
//
//	ident, _ := cache.Ident("https://github.com/org/repo") // "repo-<16 hex digits>"
//
// # Layout
//
//	<root>/
//	├── index.json                 # checkout metadata
//	├── db/
//	│   └── repo-1a2b3c4d5e6f7a8b/  # bare database, fetched into, never deleted here
//	└── checkouts/
//	    └── repo-1a2b3c4d5e6f7a8b/
//	        ├── master/             # exported tree + .gitsource-ok marker
//	        └── v1.0.0/
//
// # Fetch or reuse
//
// Resolve consults the local database first. A reference pinned to a precise
// revision that is already present is used without network access; anything
// else is fetched and resolved again. Materialize then exports the revision
// into the checkout directory for the symbolic reference.
//
//	res, err := c.Resolve(ctx, id)
//	if err != nil {
//	    return err
//	}
//	dir, err := c.Materialize(ctx, res)
//
// RepositoryCache does no cross-process locking of its own. Callers hold the
// package cache lock (see the lock package) around Resolve and Materialize,
// and around Prune and Stats.
package cache
