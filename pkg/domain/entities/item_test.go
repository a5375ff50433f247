package entities

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMaterialType(t *testing.T) {
	testCases := []struct {
		in      string
		want    MaterialType
		wantErr bool
	}{
		{"FINISHED_GOOD", FinishedGood, false},
		{"INTERMEDIATE", Intermediate, false},
		{"RAW_MATERIAL", RawMaterial, false},
		{"finished_good", RawMaterial, true},
		{"", RawMaterial, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMaterialType(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfiguration))
				var cfgErr *ConfigurationError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, "MaterialType", cfgErr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.in, got.String())
		})
	}
}

func TestMaterialType_JSON(t *testing.T) {
	row := MaterialTypeRow{Product: "A", BaseUOM: "PC", Currency: "EUR", Type: Intermediate}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"material_type":"INTERMEDIATE"`)

	var back MaterialTypeRow
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, row, back)

	err = json.Unmarshal([]byte(`{"material_type":"SCRAP"}`), &back)
	assert.True(t, errors.Is(err, ErrConfiguration), err)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Discrete", Discrete.String())
	assert.Equal(t, "Continuous", Continuous.String())
	assert.Equal(t, "Unknown", QuantityDomain(7).String())
	assert.Equal(t, "UNKNOWN", MaterialType(7).String())
	assert.Equal(t, "M1/A", ProcessNode{Machine: "M1", Product: "A"}.String())
}

func TestErrors(t *testing.T) {
	err := error(&DataIncompleteError{Relation: "Capacity", Key: "S1/M1/3"})
	assert.Equal(t, "data incomplete: Capacity has no entry for S1/M1/3", err.Error())
	assert.True(t, errors.Is(err, ErrDataIncomplete))
	assert.False(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, "data incomplete: Material", (&DataIncompleteError{Relation: "Material"}).Error())

	err = &ConfigurationError{Field: "uom", Value: "BOX", Reason: "unknown unit"}
	assert.Equal(t, `configuration error: uom="BOX": unknown unit`, err.Error())
	assert.True(t, errors.Is(err, ErrConfiguration))
}
