package params

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/fhegraph/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// Error codes for parameter loading.
const (
	ErrCodeNotFound     = "P001" // Preset or file not found
	ErrCodeUnsupported  = "P002" // Unknown file extension
	ErrCodeParseFailed  = "P003" // Syntax or decode error
	ErrCodeSchemaFailed = "P004" // Schema violation
	ErrCodeInvalidShape = "P005" // Structural check failed
)

// LoadError reports a parameter file that could not be loaded.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a LoadError for a missing preset or file.
func IsNotFound(err error) bool {
	var le *LoadError
	return errors.As(err, &le) && le.Code == ErrCodeNotFound
}

// Resolve returns the preset named ref, or loads ref as a file path.
// An empty ref yields Default().
func Resolve(ref string) (ir.Params, string, error) {
	if ref == "" {
		return Default(), LattigoN14T65537, nil
	}
	if p, ok := Preset(ref); ok {
		return p, ref, nil
	}
	if _, err := os.Stat(ref); err != nil {
		return ir.Params{}, "", &LoadError{
			Code:    ErrCodeNotFound,
			Path:    ref,
			Message: fmt.Sprintf("no preset or file named %q (presets: %s)", ref, strings.Join(Names(), ", ")),
		}
	}
	p, err := Load(ref)
	if err != nil {
		return ir.Params{}, "", err
	}
	return p, strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref)), nil
}

// Load reads a parameter set from path. The format is chosen by extension:
// .cue, .yaml/.yml or .json.
func Load(path string) (ir.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ir.Params{}, &LoadError{Code: ErrCodeNotFound, Path: path, Message: err.Error()}
	}

	var p ir.Params
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		p, err = decodeCUE(path, data)
	case ".yaml", ".yml":
		p, err = decodeYAML(path, data)
	case ".json":
		p, err = decodeJSON(path, data)
	default:
		return ir.Params{}, &LoadError{
			Code:    ErrCodeUnsupported,
			Path:    path,
			Message: fmt.Sprintf("unsupported parameter file extension %q", ext),
		}
	}
	if err != nil {
		return ir.Params{}, err
	}

	applyDefaults(&p)
	if err := validate(p); err != nil {
		return ir.Params{}, &LoadError{Code: ErrCodeInvalidShape, Path: path, Message: err.Error()}
	}
	return p, nil
}

func decodeCUE(path string, data []byte) (ir.Params, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return ir.Params{}, fmt.Errorf("params: embedded schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Params"))

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return ir.Params{}, cueLoadError(ErrCodeParseFailed, path, err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return ir.Params{}, cueLoadError(ErrCodeSchemaFailed, path, err)
	}

	var p ir.Params
	if err := unified.Decode(&p); err != nil {
		return ir.Params{}, cueLoadError(ErrCodeParseFailed, path, err)
	}
	return p, nil
}

func decodeYAML(path string, data []byte) (ir.Params, error) {
	var p ir.Params
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return ir.Params{}, &LoadError{Code: ErrCodeParseFailed, Path: path, Message: err.Error()}
	}
	return p, nil
}

func decodeJSON(path string, data []byte) (ir.Params, error) {
	var p ir.Params
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return ir.Params{}, &LoadError{Code: ErrCodeParseFailed, Path: path, Message: err.Error()}
	}
	return p, nil
}

// cueLoadError keeps the first CUE error and its position.
func cueLoadError(code, path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Path: path, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Path: path, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

func applyDefaults(p *ir.Params) {
	if p.SchemeType == "" {
		p.SchemeType = ir.SchemeBFV
	}
	if p.SecurityLevel == "" {
		p.SecurityLevel = ir.SecurityTC128
	}
}

// validate applies the checks the CUE schema enforces to the YAML and JSON
// paths as well.
func validate(p ir.Params) error {
	if err := p.CheckShape(); err != nil {
		return err
	}
	if p.SchemeType != ir.SchemeBFV {
		return fmt.Errorf("unsupported scheme_type %q", p.SchemeType)
	}
	if !ir.ValidSecurityLevels[p.SecurityLevel] {
		return fmt.Errorf("unknown security_level %q", p.SecurityLevel)
	}
	return nil
}
