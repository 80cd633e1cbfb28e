package reflective

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Manifest declares aliases and parameter directives for registered targets.
//
//	version: "1"
//	aliases:
//	  mailer: "*github.com/acme/app.SMTPMailer"
//	targets:
//	  "*github.com/acme/app.Service":
//	    params:
//	      store:
//	        resolve: primary-store
//	        optional: true
//	        prefer: true
//	        values:
//	          region: eu
//	        using: [config]
type Manifest struct {
	Version string                    `yaml:"version"`
	Aliases map[string]string         `yaml:"aliases,omitempty"`
	Targets map[string]TargetManifest `yaml:"targets,omitempty"`
}

// TargetManifest holds the directives of one target, keyed by parameter or property name.
type TargetManifest struct {
	Params map[string]ParamManifest `yaml:"params,omitempty"`
}

// ParamManifest is the YAML form of a parameter's directives.
type ParamManifest struct {
	Resolve  string         `yaml:"resolve,omitempty"`
	Optional bool           `yaml:"optional,omitempty"`
	Prefer   bool           `yaml:"prefer,omitempty"`
	Values   map[string]any `yaml:"values,omitempty"`
	Using    []string       `yaml:"using,omitempty"`
}

// LoadManifest loads and parses a YAML manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

// ParseManifest parses YAML data into a Manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}

	applyManifestDefaults(&m)
	return &m, nil
}

func applyManifestDefaults(m *Manifest) {
	if m.Version == "" {
		m.Version = "1"
	}
}

// Directives converts the entry to directives.
func (p ParamManifest) Directives() []Directive {
	var directives []Directive

	var values Values
	if len(p.Values) > 0 {
		values = make(Values, len(p.Values))
		for k, v := range p.Values {
			values[k] = v
		}
	}

	switch {
	case p.Resolve != "":
		directives = append(directives, ResolveByID{
			ID:               p.Resolve,
			Optional:         p.Optional,
			PreferResolution: p.Prefer,
			Values:           values,
		})
	default:
		if p.Prefer {
			directives = append(directives, PreferResolution{})
		}
		if values != nil {
			directives = append(directives, ExtraValues{Values: values})
		}
	}

	if len(p.Using) > 0 {
		directives = append(directives, Using(p.Using...))
	}
	return directives
}

// ApplyManifest registers the manifest aliases and attaches its directives to the
// registered targets. Every problem is reported; entries that apply cleanly are kept.
func (c *Container) ApplyManifest(m *Manifest) error {
	if m == nil {
		return nil
	}

	var errs error
	for alias, name := range m.Aliases {
		errs = multierr.Append(errs, c.Alias(alias, name))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for name, tm := range m.Targets {
		key := c.canonical(name)
		t, ok := c.targets[key]
		if !ok {
			errs = multierr.Append(errs, NotFoundError{ID: name})
			continue
		}

		// The target is replaced rather than mutated, so resolutions holding it
		// and descriptors handed out by Inspect stay unchanged.
		desc := t.desc
		desc.Params = append([]ParameterDescriptor(nil), desc.Params...)
		desc.Properties = append([]ParameterDescriptor(nil), desc.Properties...)

		for param, pm := range tm.Params {
			p := findParam(desc.Params, param)
			if p == nil {
				p = findParam(desc.Properties, param)
			}
			if p == nil {
				errs = multierr.Append(errs, RegistrationError{
					Name:  name,
					Cause: fmt.Errorf("manifest names unknown parameter %q", param),
				})
				continue
			}
			p.Directives = append(append([]Directive(nil), p.Directives...), pm.Directives()...)
		}
		next := *t
		next.desc = desc
		c.targets[key] = &next
	}

	return errs
}

func findParam(params []ParameterDescriptor, name string) *ParameterDescriptor {
	for i := range params {
		if params[i].Name == name {
			return &params[i]
		}
	}
	return nil
}
