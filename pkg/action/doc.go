// Package action ships the built-in assets of a hoard store: directory
// listing, help and info lookups, the call trampoline, base64 conversion,
// script reloading and two probe actions. Each action registers itself and
// its mount point at init time; CreateRegisteredAssets mounts the whole set
// into a fresh store.
package action
