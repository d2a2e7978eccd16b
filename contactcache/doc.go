// Package contactcache implements the Redis cache-aside layer for contact
// reads and identity lookups.
//
// Entries are namespaced per owner and tracked in a per-owner index set so
// that a single write can invalidate every cached view an owner might be
// served. Values are opaque bytes; callers own serialization.
//
// The cache fails open: transport errors degrade a read to the backing
// loader instead of failing the request, and the caller learns about the
// degradation through the returned [Outcome].
package contactcache
