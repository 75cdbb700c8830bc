/*
Package dsl provides a fluent builder for hand-constructed path graphs.

Generated graphs come from pkg/pathgen. The builder is for fixtures, tests and
tooling that need an exact shape: it records nodes and edges and materializes a
domain.PathGraph on Build, assigning ids in declaration order.

Example usage:

	b := dsl.New("tutorial")

	entrance := b.Root("entrance")
	left := entrance.Then("crypt")
	right := entrance.Then("library").Special()
	b.Join("throne_room", left, right)

	g, err := b.Build()
*/
package dsl
