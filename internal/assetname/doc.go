// Package assetname decodes the capture naming convention
// `<viewpoint>_<group><parts>.<ext>` into FileInfo values and re-encodes them.
//
// Parts are split on "." into part groups and each group on "_" into tokens;
// JoinedParts is the exact inverse. A sidecar override list forces specific
// files into a reserved group regardless of their leading letter.
package assetname
