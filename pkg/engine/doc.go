// Package engine provides the core types and interfaces of the junoctl
// teardown engine.
//
// # Overview
//
// A cleanup sweep runs in four phases:
//
//  1. Discover - parse the base and runtime manifests (manifest.Parser) and
//     ask the daemon for the merged view under every known project
//     (ConfigResolver).
//  2. Extract - accumulate containers, images, volumes and networks into a
//     ResourceSet, tagged with their Provenance.
//  3. Reconcile - drive idempotent stop/remove calls through a Remover.
//  4. Verify - re-list live daemon state through a Lister and report
//     leftovers in a Summary.
//
// # Core Types
//
//   - ResourceKind: container, image, volume or network
//   - ResourceSet: union of identifiers per kind plus provenance shadows
//   - Resolution: merged tree or the reason it is unavailable
//   - LiveResource / LeftoverRecord / Summary: verification results
//   - EngineError: classified failure (manifest_parse, daemon_unavailable,
//     resource_not_found, resource_in_use)
//
// # Error Policy
//
// Only the absence of both manifests aborts a sweep. Manifest parse errors
// and daemon failures degrade to "no information from this source";
// not-found and in-use removal failures are the expected steady state of a
// converged cleanup and are swallowed.
package engine
