/*
Package pathgen builds path graphs from generation parameters.

Generation is deterministic for a given random source. Variants are looked up
in a static registry keyed by GenParams.Kind; "branching" is the default.
*/
package pathgen
