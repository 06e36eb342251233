// Package server hosts the Fiber HTTP service over a cache.Store. Keys are
// addressed under /cache/<key> (path-escaped); GET/HEAD/PUT/POST/DELETE map to
// Read/Exists/Write/Fetch/Delete. Every response carries an X-Request-ID.
// Diagnostics live in the routes subpackage under /-/ so they never collide
// with cache keys.
package server
