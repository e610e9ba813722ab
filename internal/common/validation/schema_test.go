package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["amount", "guarantor"],
  "properties": {
    "amount": {"type": "number", "exclusiveMinimum": 0},
    "guarantor": {
      "type": "object",
      "required": ["fullName"],
      "properties": {"fullName": {"type": "string", "minLength": 1}}
    }
  }
}`

func TestSchema_Check(t *testing.T) {
	s := MustCompile("test", testSchema)
	assert.Equal(t, "test", s.Name())

	res, err := s.Check(map[string]interface{}{
		"amount":    5000,
		"guarantor": map[string]interface{}{"fullName": "Ada Obi"},
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestSchema_CheckReportsFields(t *testing.T) {
	s := MustCompile("test", testSchema)

	res, err := s.Check(map[string]interface{}{
		"amount":    0,
		"guarantor": map[string]interface{}{},
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)

	fields := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"amount", "guarantor.fullName"}, fields)
	assert.Contains(t, res.Summary(), "guarantor.fullName")
	assert.Equal(t, "REQUIRED", res.Errors[1].Code)
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("bad", `{"type": 12}`) })
}
