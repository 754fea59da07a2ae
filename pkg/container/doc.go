// SPDX-License-Identifier: MPL-2.0

// Package container is the runtime side of the generated graph: one
// Container per node instantiation, holding the values the node provides,
// non-owning references to the containers that satisfy its requirements, its
// scoped state holder and the Scope its background tasks run in.
//
// Generated code calls New with the node's Spec; application code supplies
// the implementation behind each node through Bindings. Consumers obtain
// capabilities with Get and never see the provider's concrete type.
package container
