// Package registry holds the extensions available to one conversion run.
//
// The Registry maps extension names to their definitions and operation
// names to the Go structs that describe their attributes. Compiled-in
// modules register themselves through the Module interface; user
// extensions are loaded from HCL manifests found under extension
// directories.
//
// After loading, the registry is validated so that every manifest-declared
// attribute matches the Go attribute struct of its operation, catching
// typos and type mismatches before the pipeline runs.
package registry
