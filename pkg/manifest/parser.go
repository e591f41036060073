package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Compose-specific layering tags.
const (
	TagReset    = "!reset"
	TagOverride = "!override"
)

// mergeTag marks a YAML "<<" merge key.
const mergeTag = "!!merge"

// maxNodes caps the nodes built for one document, aliases expanded.
const maxNodes = 1 << 18

var (
	errAliasCycle = errors.New("alias refers to its own anchor")
	errTooLarge   = fmt.Errorf("document expands to more than %d nodes", maxNodes)
)

// DirectiveFunc folds the literal value of a tagged node into the value
// stored in the tree.
type DirectiveFunc func(literal any) any

// Option configures a Parser.
type Option func(*Parser)

// WithDirective registers a handler for a custom tag.
func WithDirective(tag string, fn DirectiveFunc) Option {
	return func(p *Parser) {
		p.directives[tag] = fn
	}
}

// Parser turns manifest documents into generic trees.
// Directive handlers are fixed at construction; a Parser is safe for
// concurrent use.
type Parser struct {
	directives map[string]DirectiveFunc
}

// NewParser creates a parser with the given directive handlers.
func NewParser(opts ...Option) *Parser {
	p := &Parser{directives: make(map[string]DirectiveFunc)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewComposeParser creates a parser that understands the compose layering
// directives. Merge semantics are left to the daemon: !reset folds to nil
// and !override folds to its literal value.
func NewComposeParser() *Parser {
	return NewParser(
		WithDirective(TagReset, func(any) any { return nil }),
		WithDirective(TagOverride, func(literal any) any { return literal }),
	)
}

// ParseFile reads and parses the manifest at path.
// It returns ErrNotFound when the file does not exist and a *ParseError on
// read or syntax failures.
func (p *Parser) ParseFile(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, &ParseError{Source: path, Err: err}
	}
	return p.Parse(data, path)
}

// Parse parses manifest content. source names the document in errors.
func (p *Parser) Parse(data []byte, source string) (Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	// Empty input decodes to a zero node.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Tree{}, nil
	}

	d := &decoder{directives: p.directives, active: make(map[*yaml.Node]bool)}
	value, err := d.convert(doc.Content[0])
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	switch v := value.(type) {
	case nil:
		return Tree{}, nil
	case map[string]any:
		return Tree(v), nil
	default:
		return nil, &ParseError{
			Source: source,
			Err:    fmt.Errorf("document root must be a mapping, got %T", value),
		}
	}
}

// decoder holds the state of one conversion: the anchors being expanded
// and the number of nodes built so far.
type decoder struct {
	directives map[string]DirectiveFunc
	active     map[*yaml.Node]bool
	nodes      int
}

// convert builds a generic value from a node, applying directives.
func (d *decoder) convert(node *yaml.Node) (any, error) {
	d.nodes++
	if d.nodes > maxNodes {
		return nil, errTooLarge
	}
	if fn, ok := d.directives[node.Tag]; ok {
		literal, err := d.literal(node)
		if err != nil {
			return nil, err
		}
		return fn(literal), nil
	}
	return d.literal(node)
}

// literal converts a node ignoring any directive on the node itself.
func (d *decoder) literal(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return d.convert(node.Content[0])

	case yaml.AliasNode:
		if node.Alias == nil {
			return nil, fmt.Errorf("line %d: dangling alias %q", node.Line, node.Value)
		}
		if d.active[node.Alias] {
			return nil, fmt.Errorf("line %d: %q: %w", node.Line, node.Value, errAliasCycle)
		}
		d.active[node.Alias] = true
		defer delete(d.active, node.Alias)
		return d.convert(node.Alias)

	case yaml.MappingNode:
		return d.mapping(node)

	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := d.convert(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.ScalarNode:
		return scalar(node)

	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", node.Line, node.Kind)
	}
}

// mapping converts a mapping node. Keys from "<<" merges never replace keys
// declared explicitly on the mapping.
func (d *decoder) mapping(node *yaml.Node) (map[string]any, error) {
	out := make(map[string]any, len(node.Content)/2)
	explicit := make(map[string]bool, len(node.Content)/2)
	var merged []map[string]any

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == mergeTag {
			sources, err := d.mergeSources(valNode)
			if err != nil {
				return nil, err
			}
			merged = append(merged, sources...)
			continue
		}

		key, err := d.convert(keyNode)
		if err != nil {
			return nil, err
		}
		val, err := d.convert(valNode)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprint(key)
		out[name] = val
		explicit[name] = true
	}

	// Earlier merge sources take precedence over later ones.
	for _, src := range merged {
		for k, v := range src {
			if explicit[k] {
				continue
			}
			if _, seen := out[k]; seen {
				continue
			}
			out[k] = v
		}
	}
	return out, nil
}

func (d *decoder) mergeSources(node *yaml.Node) ([]map[string]any, error) {
	value, err := d.convert(node)
	if err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("line %d: merge sequence entries must be mappings", node.Line)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: merge value must be a mapping", node.Line)
	}
}

// scalar resolves a scalar with the standard YAML rules. Local tags the
// parser has no directive for are dropped and the value resolved as if
// untagged.
func scalar(node *yaml.Node) (any, error) {
	n := *node
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
		n.Tag = ""
		n.Style &^= yaml.TaggedStyle
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}
	return v, nil
}
