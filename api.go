package mson

// Reserved tag keys. Payload keys for built-in types never collide with these.
const (
	keyModule   = "@module"
	keyClass    = "@class"
	keyVersion  = "@version"
	keyCallable = "@callable"
	keyBound    = "@bound"
)

// Path is a filesystem path carried as a distinct type so the encoder can tag
// it (pathlib/Path) instead of treating it as a plain string.
type Path string

func (p Path) String() string { return string(p) }

// Dicter lets a type supply its own tagged field map, bypassing auto-derive.
// The returned map may omit @module/@class; the encoder fills them in.
type Dicter interface {
	AsDict() (map[string]any, error)
}

// DictProvider marks data-validation-model values. The encoder serializes them
// through their plain dict rather than through auto-derive.
type DictProvider interface {
	ModelDict() map[string]any
}

// Validator is run after keyword reconstruction. A failure is wrapped in a
// descriptive validation error carrying the underlying cause.
type Validator interface {
	Validate() error
}

// Marshal encodes v into self-describing JSON text.
func Marshal(v any) ([]byte, error) {
	tree, err := Encode(v)
	if err != nil {
		return nil, err
	}
	b, err := getDriver().Marshal(tree)
	if err != nil {
		return nil, wrapError(CodeParse, "marshal failed", err)
	}
	return b, nil
}

// ToJSON is a convenience wrapper returning Marshal output as a string.
func ToJSON(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Unmarshal parses self-describing JSON text and reconstructs the value using
// the process-default redirect table and the lenient resolution mode.
func Unmarshal(data []byte) (any, error) {
	return NewDecoder().Unmarshal(data)
}
