/*
Package coordinator turns node selections into room runs.

A group walks its path one node at a time: the root first, then a direct child
of the node it last cleared. A failed node may be retried until the attempt
budget runs out. Every method must be called from the heartbeat's logical
thread (see tick.Loop.Call); the coordinator holds no locks of its own.
*/
package coordinator
