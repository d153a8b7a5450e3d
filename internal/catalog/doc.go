// Package catalog orchestrates one catalog build.
//
// A build collects image and movie captures below the asset root, applies
// the declarative map on top of them, measures and transcodes the assets,
// backfills viewpoint and position thumbnails, resolves the object document
// and finally hands the finished entity set to a Writer. Stages are
// separated by barriers: a stage starts only once every output of the
// previous stage exists on disk.
//
// Builds are serialized per database with an exclusive file lock next to
// the database path, and every build carries a run_id for log correlation.
package catalog
