// Package cache implements the disk-backed content store. Keys are encoded into
// sharded paths below a root directory (see EncodeKey); every entry is a single
// file whose size and access time come from the filesystem. Writers serialize on
// an exclusive flock(2) of the entry file, readers take no lock, and a Reaper
// spawned per root keeps the directory under its configured budget.
package cache
