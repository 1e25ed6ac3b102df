package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sample = `
SCHEMA IFC_SAMPLE;

TYPE IfcLabel = STRING(255);
END_TYPE;

TYPE IfcPositiveLengthMeasure = IfcLengthMeasure;
 WHERE
  WR1 : SELF > 0.;
END_TYPE;

TYPE IfcLengthMeasure = REAL;
END_TYPE;

TYPE IfcWallTypeEnum = ENUMERATION OF
	(STANDARD
	,NOTDEFINED);
END_TYPE;

TYPE IfcColour = SELECT
	(IfcColourRgb
	,IfcPreDefinedColour);
END_TYPE;

(* ENTITY IfcCommentedOut; Ghost : IfcLabel; END_ENTITY; *)

ENTITY IfcRoot
 ABSTRACT SUPERTYPE OF (ONEOF
	(IfcObject));
	GlobalId : IfcGloballyUniqueId;
	Name : OPTIONAL IfcLabel;
 UNIQUE
	UR1 : GlobalId;
END_ENTITY;

ENTITY IfcObject
 SUBTYPE OF (IfcRoot);
	ObjectType : OPTIONAL IfcLabel;
 INVERSE
	IsDeclaredBy : SET [0:1] OF IfcRelDefinesByObject FOR RelatedObjects;
END_ENTITY;

ENTITY IfcColourRgb
 SUBTYPE OF (IfcColourSpecification);
	Red, Green, Blue : IfcNormalisedRatioMeasure;
END_ENTITY;

ENTITY IfcGeometricRepresentationSubContext
 SUBTYPE OF (IfcGeometricRepresentationContext);
	ParentContext : IfcGeometricRepresentationContext;
	TargetScale : OPTIONAL IfcPositiveRatioMeasure;
 DERIVE
	SELF\IfcGeometricRepresentationContext.WorldCoordinateSystem : IfcAxis2Placement := ParentContext.WorldCoordinateSystem;
 WHERE
	WR31 : NOT('IFC4.IFCGEOMETRICREPRESENTATIONSUBCONTEXT' IN TYPEOF(ParentContext));
END_ENTITY;

ENTITY IfcPolyline
 SUBTYPE OF (IfcBoundedCurve);
	Points : LIST [2:?] OF IfcCartesianPoint;
END_ENTITY;

ENTITY IfcRelDecomposes
 ABSTRACT SUPERTYPE OF (ONEOF(IfcRelAggregates,IfcRelNests))
 SUBTYPE OF (IfcRelationship);
END_ENTITY;

END_SCHEMA;
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseExpress(t *testing.T) {
	s, err := parseExpress(sample)
	require.NoError(t, err)

	assert.Equal(t, "IFC_SAMPLE", s.Name)
	assert.Equal(t, []string{"IfcLabel", "IfcLengthMeasure", "IfcPositiveLengthMeasure"}, s.Types)

	byName := make(map[string]expressEntity)
	for _, e := range s.Entities {
		byName[e.Name] = e
	}
	require.Len(t, byName, 6)
	assert.NotContains(t, byName, "IfcCommentedOut")

	assert.Equal(t, expressEntity{Name: "IfcRoot", Attributes: []string{"GlobalId", "Name"}}, byName["IfcRoot"])
	assert.Equal(t, expressEntity{Name: "IfcObject", Supertype: "IfcRoot", Attributes: []string{"ObjectType"}}, byName["IfcObject"])
	assert.Equal(t, []string{"Red", "Green", "Blue"}, byName["IfcColourRgb"].Attributes)
	assert.Equal(t, []string{"ParentContext", "TargetScale"}, byName["IfcGeometricRepresentationSubContext"].Attributes)
	assert.Equal(t, []string{"Points"}, byName["IfcPolyline"].Attributes)
	assert.Equal(t, "IfcRelationship", byName["IfcRelDecomposes"].Supertype)
	assert.Empty(t, byName["IfcRelDecomposes"].Attributes)

	// sorted for stable output
	assert.Equal(t, "IfcColourRgb", s.Entities[0].Name)
}

func TestParseExpressErrors(t *testing.T) {
	_, err := parseExpress("ENTITY IfcRoot; END_ENTITY;")
	assert.ErrorContains(t, err, "no SCHEMA")

	_, err = parseExpress("SCHEMA EMPTY; END_SCHEMA;")
	assert.ErrorContains(t, err, "no entities")

	_, err = parseExpress("SCHEMA X; ENTITY A; END_ENTITY; ENTITY a; END_ENTITY; END_SCHEMA;")
	assert.ErrorContains(t, err, "declared twice")

	_, err = parseExpress("SCHEMA X; ENTITY A; broken attribute; END_ENTITY; END_SCHEMA;")
	assert.ErrorContains(t, err, "cannot read attribute")
}

// The rendered table must round-trip through the same shape package schema
// decodes.
func TestRenderDecodes(t *testing.T) {
	s, err := parseExpress(sample)
	require.NoError(t, err)
	data, err := render(s, "sample.exp")
	require.NoError(t, err)

	assert.Contains(t, string(data), "# IFC_SAMPLE attribute table")
	assert.Contains(t, string(data), "# Source: sample.exp")
	assert.Contains(t, string(data), "attributes: [Red, Green, Blue]")

	var table struct {
		Schema   string   `yaml:"schema"`
		Types    []string `yaml:"types"`
		Entities map[string]struct {
			Supertype  string   `yaml:"supertype"`
			Attributes []string `yaml:"attributes"`
		} `yaml:"entities"`
	}
	require.NoError(t, yaml.Unmarshal(data, &table))
	assert.Equal(t, "IFC_SAMPLE", table.Schema)
	assert.Len(t, table.Types, 3)
	assert.Len(t, table.Entities, 6)
	assert.Equal(t, "IfcRoot", table.Entities["IfcObject"].Supertype)
	assert.Empty(t, table.Entities["IfcRoot"].Supertype)
}

func TestRunWritesFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "sample.exp")
	out := filepath.Join(dir, "sample.yaml")
	require.NoError(t, os.WriteFile(in, []byte(sample), 0o644))

	require.NoError(t, run(in, out, quietLogger()))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "schema: IFC_SAMPLE")

	assert.Error(t, run("", out, quietLogger()))
	assert.Error(t, run(filepath.Join(dir, "missing.exp"), out, quietLogger()))
}
