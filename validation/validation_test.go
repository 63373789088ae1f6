package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		expectedValue string
		expectedError string
	}{
		{
			name:          "Valid mixed case",
			raw:           `"Sailboat"`,
			expectedValue: "Sailboat",
		},
		{
			name:          "Valid uppercase",
			raw:           `"ORCA"`,
			expectedValue: "ORCA",
		},
		{
			name:          "Number instead of string",
			raw:           `42`,
			expectedError: "Object name must only contain characters",
		},
		{
			name:          "Boolean instead of string",
			raw:           `true`,
			expectedError: "Object name must only contain characters",
		},
		{
			name:          "Contains digits",
			raw:           `"Boat99"`,
			expectedError: "Object name must only contain characters",
		},
		{
			name:          "Contains space",
			raw:           `"Sea Witch"`,
			expectedError: "Object name must only contain characters",
		},
		{
			name:          "Too long",
			raw:           `"AVERYVERYLONGBOATNAME"`,
			expectedError: "Object name can only be 20 characters long",
		},
		{
			name:          "Exactly twenty characters",
			raw:           `"ABCDEFGHIJKLMNOPQRST"`,
			expectedValue: "ABCDEFGHIJKLMNOPQRST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, appErr := Text("name", json.RawMessage(tt.raw))
			if tt.expectedError != "" {
				require.NotNil(t, appErr)
				assert.Equal(t, tt.expectedError, appErr.Message)
			} else {
				require.Nil(t, appErr)
				assert.Equal(t, tt.expectedValue, value)
			}
		})
	}
}

func TestInteger(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		expectedValue int
		expectedError string
	}{
		{
			name:          "Valid integer",
			raw:           `500`,
			expectedValue: 500,
		},
		{
			name:          "Upper bound",
			raw:           `999`,
			expectedValue: 999,
		},
		{
			name:          "Too large",
			raw:           `1000`,
			expectedError: "Object length must be less than 1000",
		},
		{
			name:          "String instead of integer",
			raw:           `"twenty"`,
			expectedError: "Object length must contain only integers",
		},
		{
			name:          "Fractional number",
			raw:           `20.5`,
			expectedError: "Object length must contain only integers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, appErr := Integer("length", json.RawMessage(tt.raw))
			if tt.expectedError != "" {
				require.NotNil(t, appErr)
				assert.Equal(t, tt.expectedError, appErr.Message)
			} else {
				require.Nil(t, appErr)
				assert.Equal(t, tt.expectedValue, value)
			}
		})
	}
}

func TestBoat(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		expectedError string
	}{
		{
			name: "Valid boat",
			body: `{"name":"Orca","type":"Sailboat","length":20}`,
		},
		{
			name:          "Missing length",
			body:          `{"name":"Orca","type":"Sailboat"}`,
			expectedError: "The request object is missing at least one of the required attributes",
		},
		{
			name:          "Missing everything",
			body:          `{}`,
			expectedError: "The request object is missing at least one of the required attributes",
		},
		{
			name:          "Bad type attribute",
			body:          `{"name":"Orca","type":7,"length":20}`,
			expectedError: "Object type must only contain characters",
		},
		{
			name:          "Length out of range",
			body:          `{"name":"Orca","type":"Sailboat","length":1001}`,
			expectedError: "Object length must be less than 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req BoatRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))

			attrs, appErr := Boat(req)
			if tt.expectedError != "" {
				require.NotNil(t, appErr)
				assert.Equal(t, tt.expectedError, appErr.Message)
			} else {
				require.Nil(t, appErr)
				assert.Equal(t, "Orca", attrs.Name)
				assert.Equal(t, "Sailboat", attrs.Type)
				assert.Equal(t, 20, attrs.Length)
			}
		})
	}
}

func TestBoatPartial(t *testing.T) {
	t.Run("Single attribute", func(t *testing.T) {
		var req BoatRequest
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Pequod"}`), &req))

		patch, appErr := BoatPartial(req)
		require.Nil(t, appErr)
		require.NotNil(t, patch.Name)
		assert.Equal(t, "Pequod", *patch.Name)
		assert.Nil(t, patch.Type)
		assert.Nil(t, patch.Length)
	})

	t.Run("No recognized attributes", func(t *testing.T) {
		var req BoatRequest
		require.NoError(t, json.Unmarshal([]byte(`{"colour":"red"}`), &req))

		_, appErr := BoatPartial(req)
		require.NotNil(t, appErr)
		assert.Equal(t,
			"The request object is missing at least one of the required attributes",
			appErr.Message)
	})

	t.Run("Supplied attribute still validated", func(t *testing.T) {
		var req BoatRequest
		require.NoError(t, json.Unmarshal([]byte(`{"length":"long"}`), &req))

		_, appErr := BoatPartial(req)
		require.NotNil(t, appErr)
		assert.Equal(t, "Object length must contain only integers", appErr.Message)
	})
}

func TestLoad(t *testing.T) {
	var req LoadRequest
	require.NoError(t, json.Unmarshal(
		[]byte(`{"content":"Fish","destination":"Seattle","volume":500}`), &req))

	attrs, appErr := Load(req)
	require.Nil(t, appErr)
	assert.Equal(t, "Fish", attrs.Content)
	assert.Equal(t, "Seattle", attrs.Destination)
	assert.Equal(t, 500, attrs.Volume)

	var missing LoadRequest
	require.NoError(t, json.Unmarshal([]byte(`{"content":"Fish"}`), &missing))
	_, appErr = Load(missing)
	require.NotNil(t, appErr)
	assert.Equal(t,
		"The request object is missing at least one of the required attributes",
		appErr.Message)
}

func TestLoadPartial(t *testing.T) {
	var req LoadRequest
	require.NoError(t, json.Unmarshal([]byte(`{"volume":750}`), &req))

	patch, appErr := LoadPartial(req)
	require.Nil(t, appErr)
	require.NotNil(t, patch.Volume)
	assert.Equal(t, 750, *patch.Volume)
	assert.Nil(t, patch.Content)
	assert.Nil(t, patch.Destination)
}
