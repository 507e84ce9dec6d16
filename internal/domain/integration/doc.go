// Package integration contains the outbound integration context.
//
// The service proxies a fixed set of GitHub actions on behalf of authenticated
// callers. Actions resolve to either a REST GET or a GraphQL document; the
// upstream answer is handed back without interpretation.
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
