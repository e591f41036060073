// Package manifest parses compose manifests into generic attribute trees.
//
// The parser does not implement compose layering. The !reset and !override
// directives are folded to nil and to their literal value respectively so
// that a single file can be read in isolation; the daemon applies the real
// merge semantics when it resolves several files together.
//
// Usage:
//
//	p := manifest.NewComposeParser()
//	tree, err := p.ParseFile("docker-compose.yml")
//	switch {
//	case errors.Is(err, manifest.ErrNotFound):
//	    // absent, not a failure
//	case err != nil:
//	    // *manifest.ParseError
//	}
//	for name, svc := range tree.Services() {
//	    image, _ := manifest.String(svc, "image")
//	    _ = name
//	    _ = image
//	}
package manifest
