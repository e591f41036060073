package config

import (
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-playground/validator/v10"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "juno.cue"

var validate = validator.New()

// Loader compiles configuration files against the built-in schema.
type Loader struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewLoader creates a loader. It panics only if the built-in schema does not
// compile.
func NewLoader() *Loader {
	ctx := cuecontext.New()
	schema := ctx.CompileString(builtinSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		panic(fmt.Sprintf("config: built-in schema: %v", err))
	}
	return &Loader{
		ctx:    ctx,
		schema: schema.LookupPath(cue.ParsePath("#Config")),
	}
}

// Defaults returns the configuration with every default applied.
func (l *Loader) Defaults() (*Config, error) {
	return l.decode(l.schema)
}

// Load reads path. A missing file yields the defaults.
func (l *Loader) Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l.Defaults()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return l.Parse(content, path)
}

// Parse compiles src, unifies it with the schema and decodes the result.
func (l *Loader) Parse(src []byte, filename string) (*Config, error) {
	val := l.ctx.CompileBytes(src, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, &LoadError{Errors: convertCUEErrors(err)}
	}
	return l.decode(l.schema.Unify(val))
}

func (l *Loader) decode(val cue.Value) (*Config, error) {
	if err := val.Validate(); err != nil {
		return nil, &LoadError{Errors: convertCUEErrors(err)}
	}

	// Decode resolves defaults and rejects values left incomplete.
	var cfg Config
	if err := val.Decode(&cfg); err != nil {
		return nil, &LoadError{Errors: convertCUEErrors(err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// convertCUEErrors converts CUE errors to ValidationError slice.
func convertCUEErrors(err error) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		v := ValidationError{Message: cueerrors.Details(e, nil)}
		if pos := cueerrors.Positions(e); len(pos) > 0 {
			v.File = pos[0].Filename()
			v.Line = pos[0].Line()
			v.Column = pos[0].Column()
		}
		out = append(out, v)
	}
	return out
}
