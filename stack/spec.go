package stack

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tol-stack/tol-stack/stack/dist"
)

// StackSpec is the YAML stack definition. Keys use the spaced form of the
// published schema ("max length", "nominal length").
type StackSpec struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	PathType    string      `yaml:"path type,omitempty"`
	MaxLength   *float64    `yaml:"max length,omitempty"`
	MinLength   *float64    `yaml:"min length,omitempty"`
	Size        int         `yaml:"size"`
	Seed        int64       `yaml:"seed,omitempty"`
	Parts       []PartEntry `yaml:"parts"`
}

// PartEntry is a single-key mapping of part name to part spec. The list form
// preserves stack order, which a plain YAML mapping would not.
type PartEntry struct {
	Name string
	Spec PartSpec
}

// partSpecKeys are the recognized PartSpec YAML fields. Nested node decodes
// do not inherit the outer decoder's KnownFields strictness, so part-level
// keys are checked by hand.
var partSpecKeys = map[string]bool{
	"distribution": true, "nominal length": true, "tolerance": true,
	"lower tolerance": true, "limits": true, "limit": true,
	"skewiness": true, "sign": true, "comment": true,
}

func (e *PartEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return fmt.Errorf("part entry must be a single-key mapping of name to part fields")
	}
	if err := value.Content[0].Decode(&e.Name); err != nil {
		return err
	}
	fields := value.Content[1]
	if fields.Kind != yaml.MappingNode {
		return fmt.Errorf("part %q: fields must be a mapping", e.Name)
	}
	for i := 0; i < len(fields.Content); i += 2 {
		if key := fields.Content[i].Value; !partSpecKeys[key] {
			return fmt.Errorf("part %q: unknown field %q", e.Name, key)
		}
	}
	return fields.Decode(&e.Spec)
}

func (e PartEntry) MarshalYAML() (interface{}, error) {
	return map[string]PartSpec{e.Name: e.Spec}, nil
}

// PartSpec holds the YAML fields of one part.
type PartSpec struct {
	Distribution   string    `yaml:"distribution,omitempty"`
	NominalLength  float64   `yaml:"nominal length"`
	Tolerance      float64   `yaml:"tolerance"`
	LowerTolerance *float64  `yaml:"lower tolerance,omitempty"`
	Limits         []float64 `yaml:"limits,omitempty,flow"`
	Limit          *float64  `yaml:"limit,omitempty"`
	Skewness       float64   `yaml:"skewiness,omitempty"`
	Sign           int       `yaml:"sign,omitempty"`
	Comment        string    `yaml:"comment,omitempty"`
}

// LoadStackSpec reads and parses a YAML stack definition file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadStackSpec(path string) (*StackSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading stack spec: %w", err)
	}
	var spec StackSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing stack spec: %w", err)
	}
	return &spec, nil
}

// ResolvedType returns the effective path type: the explicit "path type"
// key when present, else a type inferred from which bound the spec carries,
// else circuit.
func (s *StackSpec) ResolvedType() PathType {
	if s.PathType != "" {
		return PathType(s.PathType)
	}
	if s.MaxLength != nil {
		return PathMax
	}
	if s.MinLength != nil {
		return PathMin
	}
	return PathCircuit
}

// Validate checks that all fields in the spec are valid.
func (s *StackSpec) Validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrConfig, s.Size)
	}
	pathType := s.ResolvedType()
	if !validPathTypes[pathType] {
		return fmt.Errorf("%w: unknown path type %q; valid: circuit, max, min", ErrConfig, s.PathType)
	}
	if pathType == PathMax && s.MaxLength == nil {
		return fmt.Errorf(`%w: max paths require a "max length"`, ErrConfig)
	}
	if pathType == PathMin && s.MinLength == nil {
		return fmt.Errorf(`%w: min paths require a "min length"`, ErrConfig)
	}
	if len(s.Parts) == 0 {
		return fmt.Errorf("%w: at least one part required", ErrConfig)
	}
	for i, entry := range s.Parts {
		if err := validatePartSpec(entry.Name, i, &entry.Spec); err != nil {
			return err
		}
	}
	return nil
}

func validatePartSpec(name string, idx int, p *PartSpec) error {
	prefix := fmt.Sprintf("parts[%d] %q", idx, name)

	kind := dist.Kind(p.Distribution).Normalize()
	if !kind.Valid() {
		return fmt.Errorf("%w: %s: unknown distribution %q; valid: %s",
			ErrConfig, prefix, p.Distribution, dist.KindNames())
	}
	if err := validateFinite(prefix+".nominal length", p.NominalLength); err != nil {
		return err
	}
	if err := validateFinite(prefix+".tolerance", p.Tolerance); err != nil {
		return err
	}
	if err := validateFinite(prefix+".skewiness", p.Skewness); err != nil {
		return err
	}
	if p.Tolerance <= 0 {
		return fmt.Errorf("%w: %s: tolerance must be positive, got %g", ErrConfig, prefix, p.Tolerance)
	}

	switch kind {
	case dist.NormScreened, dist.NormNotched:
		if len(p.Limits) != 2 {
			return fmt.Errorf("%w: %s: %s requires exactly two limits, got %d",
				ErrConfig, prefix, kind, len(p.Limits))
		}
		if p.Limits[0] >= p.Limits[1] {
			return fmt.Errorf("%w: %s: low limit %g must be below high limit %g",
				ErrConfig, prefix, p.Limits[0], p.Limits[1])
		}
	case dist.NormLT, dist.NormGT:
		if p.Limit == nil && len(p.Limits) == 0 {
			return fmt.Errorf("%w: %s: %s requires a limit", ErrConfig, prefix, kind)
		}
	}

	if p.Sign != 0 && p.Sign != 1 && p.Sign != -1 {
		return fmt.Errorf("%w: %s: sign must be +1 or -1, got %d", ErrConfig, prefix, p.Sign)
	}
	return nil
}

func validateFinite(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %f", ErrConfig, name, val)
	}
	return nil
}

// distSpec maps YAML part fields onto a distribution spec.
func (p *PartSpec) distSpec() dist.Spec {
	kind := dist.Kind(p.Distribution).Normalize()
	spec := dist.Spec{Kind: kind, Skewness: p.Skewness}
	switch kind {
	case dist.NormScreened, dist.NormNotched:
		if len(p.Limits) == 2 {
			spec.LowLimit = &p.Limits[0]
			spec.HighLimit = &p.Limits[1]
		}
	case dist.NormLT, dist.NormGT:
		switch {
		case p.Limit != nil:
			spec.Limit = p.Limit
		case len(p.Limits) > 0:
			// One-sided kinds also accept the first entry of a limits list.
			spec.Limit = &p.Limits[0]
		}
	}
	return spec
}

// Build validates the spec and constructs the stack path with its parts
// added in file order.
func (s *StackSpec) Build() (*StackPath, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cfg := PathConfig{
		Name:        s.Name,
		Description: s.Description,
		Type:        s.ResolvedType(),
		Seed:        s.Seed,
	}
	if s.MaxLength != nil {
		cfg.MaxValue = *s.MaxLength
	}
	if s.MinLength != nil {
		cfg.MinValue = *s.MinLength
	}

	path, err := NewStackPath(cfg)
	if err != nil {
		return nil, err
	}

	for _, entry := range s.Parts {
		ps := entry.Spec
		lowerTol := ps.Tolerance
		if ps.LowerTolerance != nil {
			lowerTol = *ps.LowerTolerance
		}

		part, err := NewPartWithDist(entry.Name, ps.NominalLength, ps.Tolerance, lowerTol, ps.distSpec(), s.Size)
		if err != nil {
			return nil, err
		}
		part.Comment = ps.Comment

		sign := ps.Sign
		if sign == 0 {
			sign = 1
		}
		if err := path.AddPartSigned(part, sign); err != nil {
			return nil, err
		}
	}
	return path, nil
}

// Dump writes the spec as canonical YAML.
func (s *StackSpec) Dump(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("encoding stack spec: %w", err)
	}
	return encoder.Close()
}
