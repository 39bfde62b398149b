package optic

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/df07/go-sequential-raytracer/pkg/aperture"
	"github.com/df07/go-sequential-raytracer/pkg/coatings"
	"github.com/df07/go-sequential-raytracer/pkg/coordsys"
	"github.com/df07/go-sequential-raytracer/pkg/geometry"
	"github.com/df07/go-sequential-raytracer/pkg/interactions"
	"github.com/df07/go-sequential-raytracer/pkg/materials"
	vmath "github.com/df07/go-sequential-raytracer/pkg/math"
	"github.com/df07/go-sequential-raytracer/pkg/propagation"
	"github.com/df07/go-sequential-raytracer/pkg/raygen"
	"github.com/df07/go-sequential-raytracer/pkg/surfaces"
)

// The JSON document mirrors each component's constructor parameters, so a
// system survives a save/load round trip exactly.

type vecDoc struct {
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	Z float64 `json:"z,omitempty"`
}

type materialDoc struct {
	Model string    `json:"model"`
	Name  string    `json:"name,omitempty"`
	N     float64   `json:"n,omitempty"`
	K     float64   `json:"k,omitempty"`
	Nd    float64   `json:"nd,omitempty"`
	Vd    float64   `json:"vd,omitempty"`
	B     []float64 `json:"b,omitempty"`
	C     []float64 `json:"c,omitempty"`
}

type geometryDoc struct {
	Type           string    `json:"type"`
	Radius         float64   `json:"radius,omitempty"`
	Conic          float64   `json:"conic,omitempty"`
	Coefficients   []float64 `json:"coefficients,omitempty"`
	RadiusX        float64   `json:"radius_x,omitempty"`
	RadiusY        float64   `json:"radius_y,omitempty"`
	ConicX         float64   `json:"conic_x,omitempty"`
	ConicY         float64   `json:"conic_y,omitempty"`
	RadiusRotation float64   `json:"radius_rotation,omitempty"`
	RadiusYZ       float64   `json:"radius_yz,omitempty"`
	Period         float64   `json:"period,omitempty"`
	GrooveAngle    float64   `json:"groove_angle,omitempty"`
}

type interactionDoc struct {
	Type        string  `json:"type"`
	FocalLength float64 `json:"focal_length,omitempty"`
	Order       int     `json:"order,omitempty"`
	Period      float64 `json:"period,omitempty"`
	GrooveAngle float64 `json:"groove_angle,omitempty"`
	Reflective  bool    `json:"reflective,omitempty"`
}

type coatingDoc struct {
	Type          string  `json:"type"`
	Transmittance float64 `json:"transmittance,omitempty"`
}

type apertureDoc struct {
	Type  string    `json:"type"`
	RMax  float64   `json:"r_max,omitempty"`
	RMin  float64   `json:"r_min,omitempty"`
	DX    float64   `json:"dx,omitempty"`
	DY    float64   `json:"dy,omitempty"`
	HalfX float64   `json:"half_x,omitempty"`
	HalfY float64   `json:"half_y,omitempty"`
	XS    []float64 `json:"xs,omitempty"`
	YS    []float64 `json:"ys,omitempty"`
}

type grinDoc struct {
	N0   float64 `json:"n0"`
	NR2  float64 `json:"nr2,omitempty"`
	Step float64 `json:"step,omitempty"`
}

type surfaceDoc struct {
	Geometry    geometryDoc     `json:"geometry"`
	Position    vecDoc          `json:"position"`
	Tilt        vecDoc          `json:"tilt"`
	Material    *materialDoc    `json:"material,omitempty"`
	Interaction *interactionDoc `json:"interaction,omitempty"`
	Coating     *coatingDoc     `json:"coating,omitempty"`
	Aperture    *apertureDoc    `json:"aperture,omitempty"`
	Grin        *grinDoc        `json:"grin,omitempty"`
	Stop        bool            `json:"stop,omitempty"`
	Thickness   float64         `json:"thickness,omitempty"`
}

type fieldsDoc struct {
	Type           string       `json:"type"`
	Max            float64      `json:"max,omitempty"`
	ObjectDistance float64      `json:"object_distance,omitempty"`
	Points         [][2]float64 `json:"points,omitempty"`
}

type systemDoc struct {
	Aperture struct {
		EPD float64 `json:"epd"`
	} `json:"aperture"`
	Fields      fieldsDoc    `json:"fields"`
	Wavelengths []float64    `json:"wavelengths"`
	Surfaces    []surfaceDoc `json:"surfaces"`
}

// LoadOptions configures material resolution for named references
type LoadOptions struct {
	// Registry resolves named materials; defaults to a fresh registry
	// holding only air.
	Registry *materials.Registry
	// Lookup is consulted for names the registry does not hold
	Lookup materials.LookupByName
}

// namedMaterial keeps the database name alongside the resolved material so
// a loaded system serializes back to the same reference.
type namedMaterial struct {
	materials.Material
	name string
}

func buildMaterial(doc *materialDoc, opts LoadOptions) (materials.Material, error) {
	if doc == nil {
		return materials.Air{}, nil
	}
	switch doc.Model {
	case "", "air":
		return materials.Air{}, nil
	case "ideal":
		m, err := materials.NewIdeal(doc.N, doc.K)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "abbe":
		m, err := materials.NewAbbe(doc.Nd, doc.Vd)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "sellmeier":
		if len(doc.B) != 3 || len(doc.C) != 3 {
			return nil, fmt.Errorf("optic: sellmeier material needs 3 B and 3 C coefficients")
		}
		m, err := materials.NewSellmeier([3]float64{doc.B[0], doc.B[1], doc.B[2]},
			[3]float64{doc.C[0], doc.C[1], doc.C[2]})
		if err != nil {
			return nil, err
		}
		return m, nil
	case "named":
		if opts.Registry != nil {
			if m, err := opts.Registry.Get(doc.Name); err == nil {
				return namedMaterial{Material: m, name: doc.Name}, nil
			}
		}
		if opts.Lookup != nil {
			m, err := opts.Lookup(doc.Name)
			if err != nil {
				return nil, fmt.Errorf("optic: material %q: %w", doc.Name, err)
			}
			return namedMaterial{Material: m, name: doc.Name}, nil
		}
		return nil, fmt.Errorf("optic: unresolved named material %q", doc.Name)
	default:
		return nil, fmt.Errorf("optic: unknown material model %q", doc.Model)
	}
}

func materialToDoc(m materials.Material) (*materialDoc, error) {
	switch v := m.(type) {
	case nil, materials.Air:
		return nil, nil
	case namedMaterial:
		return &materialDoc{Model: "named", Name: v.name}, nil
	case *materials.Ideal:
		return &materialDoc{Model: "ideal", N: v.N0, K: v.K0}, nil
	case *materials.Abbe:
		return &materialDoc{Model: "abbe", Nd: v.Nd, Vd: v.Vd}, nil
	case *materials.Sellmeier:
		return &materialDoc{Model: "sellmeier", B: v.B[:], C: v.C[:]}, nil
	default:
		return nil, fmt.Errorf("optic: material %T is not serializable", m)
	}
}

func buildGeometry(doc geometryDoc, cs *coordsys.CoordinateSystem) (geometry.Geometry, error) {
	var (
		g   geometry.Geometry
		err error
	)
	switch doc.Type {
	case "plane":
		g = geometry.NewPlane(cs)
	case "standard":
		g, err = geometry.NewStandard(cs, doc.Radius, doc.Conic)
	case "even_asphere":
		g, err = geometry.NewEvenAsphere(cs, doc.Radius, doc.Conic, doc.Coefficients)
	case "odd_asphere":
		g, err = geometry.NewOddAsphere(cs, doc.Radius, doc.Conic, doc.Coefficients)
	case "biconic":
		g, err = geometry.NewBiconic(cs, doc.RadiusX, doc.RadiusY, doc.ConicX, doc.ConicY)
	case "toroidal":
		g, err = geometry.NewToroidal(cs, doc.RadiusRotation, doc.RadiusYZ, doc.Coefficients)
	case "grating":
		g, err = geometry.NewGrating(cs, doc.Radius, doc.Conic, doc.Period, doc.GrooveAngle)
	default:
		return nil, fmt.Errorf("optic: unknown geometry type %q", doc.Type)
	}
	return g, err
}

func geometryToDoc(g geometry.Geometry) (geometryDoc, error) {
	switch v := g.(type) {
	case *geometry.Plane:
		return geometryDoc{Type: "plane"}, nil
	case *geometry.Grating:
		return geometryDoc{Type: "grating", Radius: v.Radius, Conic: v.Conic,
			Period: v.Period, GrooveAngle: v.GrooveAngle}, nil
	case *geometry.Standard:
		return geometryDoc{Type: "standard", Radius: v.Radius, Conic: v.Conic}, nil
	case *geometry.EvenAsphere:
		r, k := v.Base()
		return geometryDoc{Type: "even_asphere", Radius: r, Conic: k, Coefficients: v.Coefficients}, nil
	case *geometry.OddAsphere:
		r, k := v.Base()
		return geometryDoc{Type: "odd_asphere", Radius: r, Conic: k, Coefficients: v.Coefficients}, nil
	case *geometry.Biconic:
		return geometryDoc{Type: "biconic", RadiusX: v.RadiusX, RadiusY: v.RadiusY,
			ConicX: v.ConicX, ConicY: v.ConicY}, nil
	case *geometry.Toroidal:
		return geometryDoc{Type: "toroidal", RadiusRotation: v.RadiusRotation,
			RadiusYZ: v.RadiusYZ, Coefficients: v.Coefficients}, nil
	default:
		return geometryDoc{}, fmt.Errorf("optic: geometry %T is not serializable", g)
	}
}

func buildInteraction(doc *interactionDoc, geom geometry.Geometry) (interactions.Model, error) {
	if doc == nil {
		return interactions.NewRefract(), nil
	}
	switch doc.Type {
	case "", "refract":
		return interactions.NewRefract(), nil
	case "reflect":
		return interactions.NewReflect(), nil
	case "thinlens":
		m, err := interactions.NewThinLens(doc.FocalLength)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "grating":
		period, angle := doc.Period, doc.GrooveAngle
		if period == 0 {
			// Pull the ruling from a grating substrate when present
			if g, ok := geom.(*geometry.Grating); ok {
				period, angle = g.Period, g.GrooveAngle
			}
		}
		m, err := interactions.NewDiffractive(doc.Order, period, angle, doc.Reflective)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("optic: unknown interaction type %q", doc.Type)
	}
}

func interactionToDoc(m interactions.Model) (*interactionDoc, error) {
	switch v := m.(type) {
	case *interactions.RefractiveReflective:
		if v.IsReflective {
			return &interactionDoc{Type: "reflect"}, nil
		}
		return nil, nil
	case *interactions.ThinLens:
		return &interactionDoc{Type: "thinlens", FocalLength: v.FocalLength}, nil
	case *interactions.Diffractive:
		return &interactionDoc{Type: "grating", Order: v.Order, Period: v.Period,
			GrooveAngle: v.GrooveAngle, Reflective: v.IsReflective}, nil
	default:
		return nil, fmt.Errorf("optic: interaction %T is not serializable", m)
	}
}

func buildCoating(doc *coatingDoc) (coatings.Coating, error) {
	if doc == nil {
		return nil, nil
	}
	switch doc.Type {
	case "fresnel":
		return coatings.NewFresnel(), nil
	case "ideal":
		c, err := coatings.NewIdeal(doc.Transmittance)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("optic: unknown coating type %q", doc.Type)
	}
}

func coatingToDoc(c coatings.Coating) (*coatingDoc, error) {
	switch v := c.(type) {
	case nil:
		return nil, nil
	case *coatings.Fresnel:
		return &coatingDoc{Type: "fresnel"}, nil
	case *coatings.Ideal:
		return &coatingDoc{Type: "ideal", Transmittance: v.Transmittance}, nil
	default:
		return nil, fmt.Errorf("optic: coating %T is not serializable", c)
	}
}

func buildAperture(doc *apertureDoc) (aperture.Aperture, error) {
	if doc == nil {
		return nil, nil
	}
	var (
		a   aperture.Aperture
		err error
	)
	switch doc.Type {
	case "radial":
		a, err = aperture.NewRadial(doc.RMax, doc.RMin)
	case "offset":
		a, err = aperture.NewOffset(doc.RMax, doc.RMin, doc.DX, doc.DY)
	case "rectangular":
		a, err = aperture.NewRectangular(doc.HalfX, doc.HalfY)
	case "elliptical":
		a, err = aperture.NewElliptical(doc.HalfX, doc.HalfY)
	case "polygon":
		a, err = aperture.NewPolygon(doc.XS, doc.YS)
	default:
		return nil, fmt.Errorf("optic: unknown aperture type %q", doc.Type)
	}
	return a, err
}

func apertureToDoc(a aperture.Aperture) (*apertureDoc, error) {
	switch v := a.(type) {
	case nil:
		return nil, nil
	case *aperture.Offset:
		return &apertureDoc{Type: "offset", RMax: v.RMax, RMin: v.RMin, DX: v.DX, DY: v.DY}, nil
	case *aperture.Radial:
		return &apertureDoc{Type: "radial", RMax: v.RMax, RMin: v.RMin}, nil
	case *aperture.Rectangular:
		return &apertureDoc{Type: "rectangular", HalfX: v.HalfX, HalfY: v.HalfY}, nil
	case *aperture.Elliptical:
		return &apertureDoc{Type: "elliptical", HalfX: v.HalfX, HalfY: v.HalfY}, nil
	case *aperture.Polygon:
		return &apertureDoc{Type: "polygon", XS: v.XS, YS: v.YS}, nil
	default:
		return nil, fmt.Errorf("optic: aperture %T is not serializable", a)
	}
}

func buildPropagation(doc *grinDoc) (propagation.Model, error) {
	if doc == nil {
		return propagation.NewHomogeneous(), nil
	}
	g, err := propagation.NewGRIN(&propagation.RadialQuadratic{N0: doc.N0, NR2: doc.NR2}, doc.Step)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func propagationToDoc(m propagation.Model) (*grinDoc, error) {
	switch v := m.(type) {
	case nil, *propagation.Homogeneous:
		return nil, nil
	case *propagation.GRIN:
		p, ok := v.Profile.(*propagation.RadialQuadratic)
		if !ok {
			return nil, fmt.Errorf("optic: grin profile %T is not serializable", v.Profile)
		}
		return &grinDoc{N0: p.N0, NR2: p.NR2, Step: v.StepSize}, nil
	default:
		return nil, fmt.Errorf("optic: propagation %T is not serializable", m)
	}
}

// Load reads a system document. Surface media chain implicitly: each
// surface names the medium after itself, starting from air on the object
// side.
func Load(r io.Reader, opts LoadOptions) (*Optic, error) {
	var doc systemDoc
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("optic: decoding system: %w", err)
	}

	var fieldType raygen.FieldType
	switch doc.Fields.Type {
	case "", "angle":
		fieldType = raygen.Angle
	case "object_height":
		fieldType = raygen.ObjectHeight
	default:
		return nil, fmt.Errorf("optic: unknown field type %q", doc.Fields.Type)
	}

	group := surfaces.NewGroup()
	var before materials.Material = materials.Air{}
	for i, sd := range doc.Surfaces {
		cs := coordsys.New(
			vmath.NewVec3(sd.Position.X, sd.Position.Y, sd.Position.Z),
			vmath.NewVec3(sd.Tilt.X, sd.Tilt.Y, sd.Tilt.Z))
		geom, err := buildGeometry(sd.Geometry, cs)
		if err != nil {
			return nil, fmt.Errorf("optic: surface %d: %w", i, err)
		}
		after, err := buildMaterial(sd.Material, opts)
		if err != nil {
			return nil, fmt.Errorf("optic: surface %d: %w", i, err)
		}
		inter, err := buildInteraction(sd.Interaction, geom)
		if err != nil {
			return nil, fmt.Errorf("optic: surface %d: %w", i, err)
		}
		coat, err := buildCoating(sd.Coating)
		if err != nil {
			return nil, fmt.Errorf("optic: surface %d: %w", i, err)
		}
		ap, err := buildAperture(sd.Aperture)
		if err != nil {
			return nil, fmt.Errorf("optic: surface %d: %w", i, err)
		}
		prop, err := buildPropagation(sd.Grin)
		if err != nil {
			return nil, fmt.Errorf("optic: surface %d: %w", i, err)
		}

		s, err := surfaces.New(surfaces.Config{
			Geometry:    geom,
			Before:      before,
			After:       after,
			Interaction: inter,
			Propagation: prop,
			Coating:     coat,
			Aperture:    ap,
			IsStop:      sd.Stop,
			Thickness:   sd.Thickness,
		})
		if err != nil {
			return nil, fmt.Errorf("optic: surface %d: %w", i, err)
		}
		group.Add(s)
		before = after
	}

	o := &Optic{
		Group:          group,
		EPD:            doc.Aperture.EPD,
		FieldType:      fieldType,
		MaxField:       doc.Fields.Max,
		ObjectDistance: doc.Fields.ObjectDistance,
		Fields:         doc.Fields.Points,
		Wavelengths:    doc.Wavelengths,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Save writes the system document for o
func (o *Optic) Save(w io.Writer) error {
	if err := o.Validate(); err != nil {
		return err
	}

	var doc systemDoc
	doc.Aperture.EPD = o.EPD
	doc.Wavelengths = o.Wavelengths
	doc.Fields = fieldsDoc{
		Max:            o.MaxField,
		ObjectDistance: o.ObjectDistance,
		Points:         o.Fields,
	}
	switch o.FieldType {
	case raygen.ObjectHeight:
		doc.Fields.Type = "object_height"
	default:
		doc.Fields.Type = "angle"
	}

	for i, s := range o.Group.Surfaces {
		gd, err := geometryToDoc(s.Geometry)
		if err != nil {
			return fmt.Errorf("optic: surface %d: %w", i, err)
		}
		md, err := materialToDoc(s.After)
		if err != nil {
			return fmt.Errorf("optic: surface %d: %w", i, err)
		}
		id, err := interactionToDoc(s.Interaction)
		if err != nil {
			return fmt.Errorf("optic: surface %d: %w", i, err)
		}
		cd, err := coatingToDoc(s.Coating)
		if err != nil {
			return fmt.Errorf("optic: surface %d: %w", i, err)
		}
		ad, err := apertureToDoc(s.Aperture)
		if err != nil {
			return fmt.Errorf("optic: surface %d: %w", i, err)
		}
		pd, err := propagationToDoc(s.Propagation)
		if err != nil {
			return fmt.Errorf("optic: surface %d: %w", i, err)
		}

		cs := s.Geometry.CoordinateSystem()
		doc.Surfaces = append(doc.Surfaces, surfaceDoc{
			Geometry:    gd,
			Position:    vecDoc{X: cs.Translation.X, Y: cs.Translation.Y, Z: cs.Translation.Z},
			Tilt:        vecDoc{X: cs.Tilt.X, Y: cs.Tilt.Y, Z: cs.Tilt.Z},
			Material:    md,
			Interaction: id,
			Coating:     cd,
			Aperture:    ad,
			Grin:        pd,
			Stop:        s.IsStop,
			Thickness:   s.Thickness,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("optic: encoding system: %w", err)
	}
	return nil
}
