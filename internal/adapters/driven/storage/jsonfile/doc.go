// Package jsonfile persists snapshots as pretty-printed JSON files.
//
// Each snapshot name maps to <dir>/<name>.json. Writes go to a temporary
// file in the same directory which is then renamed over the target, so a
// crash mid-write never leaves a truncated snapshot behind.
package jsonfile
