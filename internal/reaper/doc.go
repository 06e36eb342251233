// Package reaper runs one background sweeper per cache root. Each Reaper polls
// the total size of the tree, asks its eviction policy what to remove when the
// budget is exceeded, and deletes the selection while tolerating concurrent
// writers and deleters. A Registry guarantees at most one Reaper per root path
// within the process; the package-level default registry backs SpawnFor and
// KillAll for callers that do not inject their own.
package reaper
