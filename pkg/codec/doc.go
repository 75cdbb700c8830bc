// Package codec converts path graphs to and from portable JSON documents.
//
// A document is a typed envelope holding the generation parameters, the
// environment reference and a flat list of node records. Decoding rebuilds the
// graph in two passes (nodes, then edges) and reports malformed documents as
// *domain.GraphIntegrityError carrying the original bytes.
package codec
