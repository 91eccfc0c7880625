// Package file provides the TOML configuration store.
//
// Settings live in <config-dir>/config.toml (default ~/.chapterdex). Nested
// tables are exposed as dot-notation keys such as "embedding.backend", and
// written back as nested tables.
package file
