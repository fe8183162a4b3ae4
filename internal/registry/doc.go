// Package registry discovers definition files across overlays and compiles
// them into an immutable Registry.
//
// Building a registry is two pure steps:
//
//	d, err := registry.Discover(registry.Options{Overlays: overlays})
//	r, err := registry.Compile(d, registry.Bindings{Middleware: middleware})
//
// Discover only touches the file system: it scans every overlay, resolves
// overrides per kind (the last overlay defining an identifier wins) and
// looks up the sentinel index file (the first overlay from the top that
// has one wins). Compile loads every resolved file, derives missing names
// once, resolves handler references and reports every problem it finds as
// one *config.ConfigurationErrorCollection.
//
// A Discovery can be written to a manifest with WriteManifest. Serving from
// a manifest skips the scan; DiscoveryFromManifest refuses manifests whose
// files changed since they were generated.
package registry
