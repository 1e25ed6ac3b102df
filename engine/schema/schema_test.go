package schema

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinIFC4(t *testing.T) {
	s, err := Builtin("ifc4")
	require.NoError(t, err)
	assert.Equal(t, "IFC4", s.Name())

	names, err := s.AttributeNames("IfcWall")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GlobalId", "OwnerHistory", "Name", "Description",
		"ObjectType", "ObjectPlacement", "Representation", "Tag", "PredefinedType",
	}, names)

	assert.Equal(t, "RelatedObjects", s.AttributeName("IFCRELAGGREGATES", 5))
	assert.Equal(t, "RelatingStructure", s.AttributeName("IfcRelContainedInSpatialStructure", 5))
	assert.Equal(t, "Coordinates", s.AttributeName("IfcCartesianPoint", 0))
}

func TestBuiltinIFC2X3(t *testing.T) {
	s, err := Builtin("IFC2X3")
	require.NoError(t, err)
	assert.Equal(t, "IFC2X3", s.Name())

	wall, err := s.AttributeNames("IfcWall")
	require.NoError(t, err)
	assert.Len(t, wall, 8, "IFC2X3 walls have no PredefinedType")

	assert.Equal(t, "Id", s.AttributeName("IfcPerson", 0))
	assert.Equal(t, "InteriorOrExteriorSpace", s.AttributeName("IfcSpace", 9))
	assert.Equal(t, "LongName", s.AttributeName("IfcProject", 5), "IfcProject derives from IfcObject")
	assert.Equal(t, "RelativePlacement", s.AttributeName("IfcLocalPlacement", 1))
	assert.Equal(t, "RelatingOpeningElement", s.AttributeName("IfcRelFillsElement", 4))
	assert.Equal(t, "IsVentilated", s.AttributeName("IfcMaterialLayer", 2))
	assert.Equal(t, "ControlElementId", s.AttributeName("IfcDistributionControlElement", 8))

	// RelatingObject and RelatedObjects sit on IfcRelDecomposes in IFC2X3 and
	// on IfcRelAggregates in IFC4; the slots still line up.
	ifc4, err := Builtin("IFC4")
	require.NoError(t, err)
	a, _ := s.AttributeNames("IfcRelAggregates")
	b, _ := ifc4.AttributeNames("IfcRelAggregates")
	assert.Equal(t, b, a)

	_, ok := s.Canonical("IfcTriangulatedFaceSet")
	assert.False(t, ok, "IFC4 geometry is not part of IFC2X3")
	got, ok := s.Canonical("IFCCALENDARDATE")
	require.True(t, ok)
	assert.Equal(t, "IfcCalendarDate", got)
}

func TestBuiltinPresentationEntities(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := Builtin(name)
			require.NoError(t, err)

			styled, err := s.AttributeNames("IFCSTYLEDITEM")
			require.NoError(t, err)
			assert.Equal(t, []string{"Item", "Styles", "Name"}, styled)

			rgb, err := s.AttributeNames("IFCCOLOURRGB")
			require.NoError(t, err)
			assert.Equal(t, []string{"Name", "Red", "Green", "Blue"}, rgb)

			layer, err := s.AttributeNames("IfcPresentationLayerAssignment")
			require.NoError(t, err)
			assert.Equal(t, []string{"Name", "Description", "AssignedItems", "Identifier"}, layer)

			clip, err := s.AttributeNames("IfcBooleanClippingResult")
			require.NoError(t, err)
			assert.Equal(t, []string{"Operator", "FirstOperand", "SecondOperand"}, clip)
		})
	}
}

func TestBuiltinTablesResolve(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := Builtin(name)
			require.NoError(t, err)
			assert.Greater(t, s.Len(), 600)

			for key, e := range s.entities {
				names, err := s.AttributeNames(key)
				require.NoError(t, err, e.name)
				seen := make(map[string]bool, len(names))
				for i, n := range names {
					assert.False(t, seen[n], "%s declares %s twice", e.name, n)
					assert.NotEqual(t, "Attribute"+strconv.Itoa(i), n, e.name)
					seen[n] = true
				}
			}
		})
	}
}

func TestBuiltinIFC4Types(t *testing.T) {
	s, err := Builtin("IFC4")
	require.NoError(t, err)

	tests := map[string][]string{
		"IfcDoor":                {"OverallHeight", "OverallWidth", "PredefinedType", "OperationType", "UserDefinedOperationType"},
		"IfcTriangulatedFaceSet": {"Coordinates", "Normals", "Closed", "CoordIndex", "PnIndex"},
		"IfcBoilerType":          {"PredefinedType"},
		"IfcMaterial":            {"Name", "Description", "Category"},
	}
	for typ, tail := range tests {
		names, err := s.AttributeNames(typ)
		require.NoError(t, err, typ)
		require.GreaterOrEqual(t, len(names), len(tail), typ)
		assert.Equal(t, tail, names[len(names)-len(tail):], typ)
	}
	assert.Equal(t, "Identification", s.AttributeName("IfcPerson", 0))
}

func TestBuiltinIsShared(t *testing.T) {
	a, err := Builtin("IFC4")
	require.NoError(t, err)
	b, err := Builtin(" ifc4 ")
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = Builtin("STEP_AP214")
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestForFile(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"IFC2X3", "IFC2X3", false},
		{"ifc4", "IFC4", false},
		{"IFC4X3_ADD2", "IFC4", false},
		{"IFC4_ADD1", "IFC4", false},
		{"", "", true},
		{"AP242", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ForFile(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownSchema)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
		})
	}
}

func TestCanonical(t *testing.T) {
	s, err := Builtin("IFC4")
	require.NoError(t, err)

	got, ok := s.Canonical("IFCBUILDINGSTOREY")
	require.True(t, ok)
	assert.Equal(t, "IfcBuildingStorey", got)

	_, ok = s.Canonical("IFCFOOBAR")
	assert.False(t, ok)
	assert.True(t, s.Has("ifcwall"))
}

func TestUnknownTypeFallback(t *testing.T) {
	s, err := Builtin("IFC4")
	require.NoError(t, err)

	_, err = s.AttributeNames("IfcNotAnEntity")
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Equal(t, "Attribute3", s.AttributeName("IfcNotAnEntity", 3))
	assert.Equal(t, "Attribute12", s.AttributeName("IfcWall", 12), "slot past the declared attributes")
}

const customTable = `
schema: TOY
entities:
  IfcRoot:
    attributes: [Name]
  IfcWall:
    supertype: IfcRoot
    attributes: [HasOpening]
  IfcDoor:
    supertype: IfcRoot
`

func TestLoadCustomTable(t *testing.T) {
	s, err := Load(strings.NewReader(customTable))
	require.NoError(t, err)
	assert.Equal(t, "TOY", s.Name())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "HasOpening", s.AttributeName("IfcWall", 1))

	names, err := s.AttributeNames("IfcDoor")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name"}, names)

	// Served from the cache the second time.
	again, err := s.AttributeNames("IFCDOOR")
	require.NoError(t, err)
	assert.Equal(t, names, again)
}

func TestLoadWithBase(t *testing.T) {
	s, err := Parse([]byte(`
schema: IFC4_PATCHED
base: IFC4
entities:
  IfcWall:
    supertype: IfcBuildingElement
    attributes: [PredefinedType, FireRating]
`))
	require.NoError(t, err)
	assert.Equal(t, "FireRating", s.AttributeName("IfcWall", 9))
	assert.Equal(t, "Elevation", s.AttributeName("IfcBuildingStorey", 9))
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing name", "entities: {IfcRoot: {}}"},
		{"dangling supertype", "schema: X\nentities:\n  IfcWall: {supertype: IfcMissing}"},
		{"cycle", "schema: X\nentities:\n  A: {supertype: B}\n  B: {supertype: A}"},
		{"unknown base", "schema: X\nbase: IFC9\nentities: {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			require.Error(t, err)
		})
	}

	_, err := Parse([]byte("schema: [unterminated"))
	assert.Error(t, err)
}

func TestCanonicalType(t *testing.T) {
	s, err := Builtin("IFC2X3")
	require.NoError(t, err)

	got, ok := s.CanonicalType("IFCPOSITIVELENGTHMEASURE")
	require.True(t, ok, "defined types resolve alongside entities")
	assert.Equal(t, "IfcPositiveLengthMeasure", got)

	got, ok = s.CanonicalType("IFCWALL")
	require.True(t, ok)
	assert.Equal(t, "IfcWall", got)

	_, ok = s.CanonicalType("IFCSOMETHINGELSE")
	assert.False(t, ok)
}
