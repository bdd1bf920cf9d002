// Package git wraps go-git for the operations a git package source needs:
// maintaining bare repository databases, resolving references to commits and
// exporting commit trees into checkout directories.
//
// All I/O goes through a billy.Filesystem so tests can run against memfs.
// Fetching is behind RemoteOperations, with a go-git implementation used by
// default and a git CLI implementation available through
// NewCLIRemoteOperations.
//
// Typical use:
//
//	remote := git.NewRemote("https://github.com/org/repo")
//	db, err := remote.Checkout(ctx, "/cache/git/db/repo-1a2b3c4d5e6f7a8b")
//	if err != nil {
//	    return err
//	}
//	rev, err := db.RevFor(core.Branch("main"))
//	if err != nil {
//	    return err
//	}
//	err = db.CopyTo(ctx, rev, "/cache/git/checkouts/repo-1a2b3c4d5e6f7a8b/main")
//
// Errors carry codes from the errors package: CodeRemoteAccess for failed
// fetches, CodeResolutionFailed for references that do not resolve, and
// CodeNotFound, CodeUnauthorized and friends for classified go-git errors.
package git
