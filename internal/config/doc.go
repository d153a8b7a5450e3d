// Package config loads, normalizes, and validates rivendb configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes the knobs the
// catalog builder, media pipeline, and similarity matcher need so the asset
// root, document locations, tool binaries, and fixed media constants are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
