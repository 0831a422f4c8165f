// ABOUTME: Asset storage package
// ABOUTME: Provides the storage backends the engine reads encoded assets from
// Package storage provides asset storage for the audio engine.
//
// FS serves assets from any fs.FS, including directories on disk. Memory
// serves assets held in memory, usually extracted from an archive with
// LoadArchive. Watcher reports files that change under a directory so that
// stale decoded buffers can be evicted.
//
// Example:
//
//	store := storage.NewDir("./assets")
//	data, err := store.ReadAsset("sfx/jump.wav")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // missing asset
//	}
package storage
