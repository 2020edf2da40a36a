// Package store provides the places rexo can read templates from: any fs.FS,
// such as a local directory, and Google Cloud Storage buckets.
package store
