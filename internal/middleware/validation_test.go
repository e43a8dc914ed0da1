package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testShowcaseRequest struct {
	ID       int64   `json:"id" validate:"required"`
	MainText string  `json:"main_text" validate:"max=200"`
	Rate     float64 `form:"rate" json:"rate" validate:"gte=0,lte=5"`
}

// Property: a request missing its id never passes validation
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeID bool, mainText string) bool {
			reqMap := map[string]interface{}{"main_text": mainText}
			if includeID {
				reqMap["id"] = 1700000000000
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("PUT", "/api/showcase", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var showcase testShowcaseRequest
			err := DecodeAndValidate(req, &showcase)

			if includeID {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) <= 200 }),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFormatValidationErrors_UsesClientFieldNames(t *testing.T) {
	err := ValidateRequest(&testShowcaseRequest{Rate: 7})
	require.Error(t, err)

	validationErrors := FormatValidationErrors(err)
	require.Len(t, validationErrors, 2)

	fields := map[string]string{}
	for _, ve := range validationErrors {
		fields[ve.Field] = ve.Message
	}
	assert.Equal(t, "This field is required", fields["id"])
	assert.Equal(t, "Value must be less than or equal to 5", fields["rate"])
}

func TestFormatValidationErrors_IgnoresOtherErrors(t *testing.T) {
	req := httptest.NewRequest("PUT", "/api/showcase", bytes.NewReader([]byte("{")))

	var showcase testShowcaseRequest
	err := DecodeAndValidate(req, &showcase)
	require.Error(t, err)
	assert.Empty(t, FormatValidationErrors(err))
}

// Property: rates inside [0, 5] pass, others fail
func TestProperty_RateRangeValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rate outside valid range is rejected", prop.ForAll(
		func(rate float64) bool {
			err := ValidateRequest(&testShowcaseRequest{ID: 1, Rate: rate})
			if rate >= 0 && rate <= 5 {
				return err == nil
			}
			return err != nil
		},
		gen.Float64Range(-10, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
