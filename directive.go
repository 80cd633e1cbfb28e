package reflective

// Directive is a declarative hint attached to a parameter or property that
// overrides default resolution. The set of directives is closed:
// ResolveByID, PreferResolution, ExtraValues and Propagate.
type Directive interface {
	directive()
}

// ResolveByID resolves the parameter through the delegate under an explicit identifier.
//
// When the parameter has a default, the default wins unless PreferResolution is set.
// A missing identifier is an error unless Optional is set, in which case resolution
// continues with the remaining rules.
type ResolveByID struct {
	ID               string
	Optional         bool
	PreferResolution bool
	Values           Values // Extra construction values for the resolved target
}

// PreferResolution makes resolution run before a parameter's default value is used.
// The default remains the fallback when nothing can be resolved.
type PreferResolution struct{}

// ExtraValues supplies construction values to the target resolved for the parameter.
type ExtraValues struct {
	Values Values
}

// Propagate forwards values already resolved for sibling parameters into the
// construction values of the target resolved for this parameter.
type Propagate struct {
	Sources []Source
}

// Source names a sibling parameter and the key its value is forwarded under.
type Source struct {
	From string
	As   any // Defaults to From
}

func (ResolveByID) directive()      {}
func (PreferResolution) directive() {}
func (ExtraValues) directive()      {}
func (Propagate) directive()        {}

// Using forwards the named siblings under their own names.
func Using(from ...string) Propagate {
	p := Propagate{Sources: make([]Source, len(from))}
	for i, name := range from {
		p.Sources[i] = Source{From: name}
	}
	return p
}

// Optional resolves id in preference to the default and falls back when id is missing.
func Optional(id string, values Values) ResolveByID {
	return ResolveByID{ID: id, Optional: true, PreferResolution: true, Values: values}
}

// plan is the effective combination of a parameter's directives.
type plan struct {
	id        string
	optional  bool
	prefer    bool
	extra     Values
	propagate []Source
}

func compile(directives []Directive) plan {
	var p plan
	for _, d := range directives {
		switch d := d.(type) {
		case ResolveByID:
			if p.id == "" {
				p.id = d.ID
				p.optional = d.Optional
			}
			p.prefer = p.prefer || d.PreferResolution
			p.extra = p.extra.Merge(d.Values)
		case PreferResolution:
			p.prefer = true
		case ExtraValues:
			p.extra = p.extra.Merge(d.Values)
		case Propagate:
			p.propagate = append(p.propagate, d.Sources...)
		}
	}
	return p
}
