/*
Package room drives one live encounter of a room definition.

A Run moves through Idle, Placing, Running, Paused, Stopped and Ended. It
registers its spawn and timer tasks on a ports.Heartbeat and expects every
method to be called from that heartbeat's logical thread. Placement completes
asynchronously and rejoins the logical thread through Heartbeat.Post.

The outcome is settled exactly once, on the transition to Ended.
*/
package room
