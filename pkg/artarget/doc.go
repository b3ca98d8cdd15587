// Package artarget manages AR targets: paired (image, video) records whose
// images are compiled into a recognition artifact that an AR front-end loads
// to detect printed images and trigger video playback.
//
// The package keeps three resources consistent: the target records held by a
// Repository, the uploaded files held by an AssetStore, and the derived
// artifact produced by a MarkerCompiler. There is no shared transaction
// across them; the service sequences operations so that readers never observe
// a target with a missing asset, and rolls back stored files with explicit
// compensating deletes when a record operation fails.
//
// Implementations live in subpackages: repo/memory and repo/postgres for the
// Repository, storage/fs for the AssetStore, and compiler for the
// MarkerCompiler.
package artarget
