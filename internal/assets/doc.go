// Package assets mirrors files from external source directories into the
// generated site and rewrites HTML references to point at the copies.
//
// A Mapping ties one canonical source directory to a public URL prefix and an
// extension allow-list. Each Mapping gets a Publisher, which copies a file at
// most once per build run and computes its public URL (optionally with a
// ?v=<digest> cache-busting suffix). The Rewriter scans a rendered page for
// img[src] and a[href], resolves relative references against the page's
// source location and hands eligible ones to the owning Publisher.
package assets
