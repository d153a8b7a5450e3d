// Package match ranks cataloged captures by perceptual difference to a
// probe screenshot.
//
// The probe is cropped to the game viewport and resized to the standard
// capture size, then compared against every eligible capture through the
// media toolkit's RMSE metric in parallel. Lower scores are closer. Any
// comparison failure aborts the whole search: a partial ranking is never
// reported.
package match
