// Package query turns classified questions into parameterized Cypher queries.
//
// Templates are declared in YAML together with a Shape that names the role of
// every returned column. The matched entity is always bound as the $name
// parameter; question text never reaches the query string.
package query

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/medqa/internal/intent"
	"github.com/zero-day-ai/medqa/internal/types"
)

// ParamName is the query parameter every template binds the entity to.
const ParamName = "name"

const placeholder = "$" + ParamName

//go:embed templates.yaml
var templatesFS embed.FS

// Role is the meaning of one result column.
type Role string

const (
	RoleMain     Role = "main"
	RoleSource   Role = "source"
	RoleRelation Role = "relation"
	RoleTarget   Role = "target"
	RoleProperty Role = "property"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleMain, RoleSource, RoleRelation, RoleTarget, RoleProperty:
		return true
	}
	return false
}

// Field describes one result column. Property overrides the key a property
// column is stored under; it defaults to Column.
type Field struct {
	Column   string `yaml:"column" json:"column"`
	Role     Role   `yaml:"role" json:"role"`
	Property string `yaml:"property,omitempty" json:"property,omitempty"`
}

// Key returns the property name of the field.
func (f Field) Key() string {
	if f.Property != "" {
		return f.Property
	}
	return f.Column
}

// Shape is the ordered column layout of a template's result rows.
type Shape []Field

// Column returns the first column with role r.
func (s Shape) Column(r Role) (string, bool) {
	for _, f := range s {
		if f.Role == r {
			return f.Column, true
		}
	}
	return "", false
}

// Properties returns the property fields in declaration order.
func (s Shape) Properties() []Field {
	var out []Field
	for _, f := range s {
		if f.Role == RoleProperty {
			out = append(out, f)
		}
	}
	return out
}

// IsRelation reports whether rows of this shape carry a relation triple.
func (s Shape) IsRelation() bool {
	for _, f := range s {
		switch f.Role {
		case RoleSource, RoleRelation, RoleTarget:
			return true
		}
	}
	return false
}

func (s Shape) validate() error {
	counts := make(map[Role]int)
	for _, f := range s {
		if f.Column == "" {
			return fmt.Errorf("field with empty column")
		}
		if !f.Role.IsValid() {
			return fmt.Errorf("column %s: unknown role %q", f.Column, f.Role)
		}
		counts[f.Role]++
	}
	if counts[RoleMain] != 1 {
		return fmt.Errorf("exactly one main column required, found %d", counts[RoleMain])
	}
	if s.IsRelation() {
		for _, r := range []Role{RoleSource, RoleRelation, RoleTarget} {
			if counts[r] != 1 {
				return fmt.Errorf("relation shape requires exactly one %s column, found %d", r, counts[r])
			}
		}
	}
	return nil
}

// Template is one Cypher query variant for an intent.
type Template struct {
	Cypher string `yaml:"cypher"`
	Shape  Shape  `yaml:"shape"`
}

func (t Template) validate() error {
	if n := strings.Count(t.Cypher, placeholder); n != 1 {
		return fmt.Errorf("expected exactly one %s placeholder, found %d", placeholder, n)
	}
	if err := t.Shape.validate(); err != nil {
		return err
	}
	for _, f := range t.Shape {
		if !strings.Contains(t.Cypher, "AS "+f.Column) {
			return fmt.Errorf("column %s is not returned by the query", f.Column)
		}
	}
	return nil
}

// Catalog maps every intent to its template variants. It is immutable once
// loaded.
type Catalog struct {
	version   string
	templates map[intent.Intent][]Template
}

type catalogFile struct {
	Version string                `yaml:"version"`
	Intents map[string][]Template `yaml:"intents"`
}

// ParseCatalog decodes and validates a YAML template catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.WrapError(types.TEMPLATE_INVALID, "failed to parse template catalog", err)
	}

	c := &Catalog{
		version:   file.Version,
		templates: make(map[intent.Intent][]Template, len(file.Intents)),
	}
	for name, variants := range file.Intents {
		i, err := intent.Parse(name)
		if err != nil {
			return nil, types.WrapError(types.TEMPLATE_INVALID, "template catalog names an unknown intent", err)
		}
		for n, t := range variants {
			if err := t.validate(); err != nil {
				return nil, types.NewError(types.TEMPLATE_INVALID, fmt.Sprintf("%s variant %d: %v", name, n, err))
			}
		}
		c.templates[i] = variants
	}

	for _, i := range intent.All() {
		if len(c.templates[i]) == 0 {
			return nil, types.NewError(types.TEMPLATE_INVALID, fmt.Sprintf("no template for intent %s", i))
		}
	}
	return c, nil
}

// LoadCatalog reads a template catalog from fsys.
func LoadCatalog(fsys fs.FS, path string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, types.WrapError(types.TEMPLATE_INVALID, fmt.Sprintf("failed to read template catalog %s", path), err)
	}
	return ParseCatalog(data)
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return LoadCatalog(templatesFS, "templates.yaml")
})

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return defaultCatalog()
}

// Version returns the catalog version string.
func (c *Catalog) Version() string {
	return c.version
}

// Templates returns the variants for i in declaration order.
func (c *Catalog) Templates(i intent.Intent) []Template {
	return c.templates[i]
}
