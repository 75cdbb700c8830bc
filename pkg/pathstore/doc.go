/*
Package pathstore binds path graphs to their owning groups.

It enforces one active path per group, serializes access per group with
reference-counted local locks (and an optional distributed lock), caches
decoded graphs and persists every change through a ports.GraphStore.

Changes are applied to a clone of the cached graph. The clone is encoded, the
document is decoded back as a round-trip check and saved, and only then does
the clone replace the cached graph. A failed save leaves the cache untouched.
*/
package pathstore
