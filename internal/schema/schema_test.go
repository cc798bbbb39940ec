package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/estatedesk/internal/model"
)

func TestAllSchemasCompile(t *testing.T) {
	c, err := load()
	require.NoError(t, err)
	for _, name := range []string{Property, BlogPost, TeamMember, Lead, HeroSlide, Settings} {
		assert.Contains(t, c.create, name)
		assert.Contains(t, c.patch, name)
	}
}

func TestValidateProperty(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		patch   bool
		field   string
		wantErr bool
	}{
		{"minimal", `{"title":"Villa","propertyType":"house"}`, false, "", false},
		{"full", `{"title":"Villa","propertyType":"land","bedrooms":null,"priceETB":100,
			"images":["https://x/y.jpg"],"coordinates":{"lat":9,"lng":38.7}}`, false, "", false},
		{"missing title", `{"propertyType":"house"}`, false, "", true},
		{"bad type", `{"title":"Villa","propertyType":"castle"}`, false, "propertyType", true},
		{"negative price", `{"title":"Villa","propertyType":"house","priceETB":-1}`, false, "priceETB", true},
		{"fractional bedrooms", `{"title":"Villa","propertyType":"house","bedrooms":2.5}`, false, "bedrooms", true},
		{"bad image", `{"title":"Villa","propertyType":"house","images":["ftp://x"]}`, false, "images.0", true},
		{"bad slug", `{"title":"Villa","propertyType":"house","slug":"Not A Slug"}`, false, "slug", true},
		{"patch partial", `{"priceETB":5}`, true, "", false},
		{"patch still typed", `{"status":"gone"}`, true, "status", true},
		{"coordinates need both", `{"coordinates":{"lat":1}}`, true, "coordinates", true},
		{"not json", `{"title":`, false, "", true},
		{"not an object", `[1,2]`, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.patch {
				err = ValidatePatch(Property, []byte(tt.body))
			} else {
				err = Validate(Property, []byte(tt.body))
			}

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			if tt.field != "" {
				assert.Equal(t, tt.field, verr.Field)
			}
			assert.NotEmpty(t, verr.Error())
		})
	}
}

func TestValidateLeadEmailFormat(t *testing.T) {
	assert.NoError(t, Validate(Lead, []byte(`{"name":"A","email":"a@example.com"}`)))

	err := Validate(Lead, []byte(`{"name":"A","email":"nope"}`))
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func TestValidateSettingsSocial(t *testing.T) {
	assert.NoError(t, ValidatePatch(Settings, []byte(`{"social":{"facebook":"https://fb.com/x"}}`)))
	assert.Error(t, ValidatePatch(Settings, []byte(`{"social":{"facebook":1}}`)))
}

func TestUnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	require.Error(t, err)
	var verr *model.ValidationError
	assert.False(t, errors.As(err, &verr))
}
