// Package schema validates request payloads against embedded JSON Schemas.
// Each entity has one document whose $defs/fields describes every writable
// field; the document root adds the fields required on create.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/erazemk/estatedesk/internal/model"
)

//go:embed *.json
var files embed.FS

// Schema names.
const (
	Property   = "property"
	BlogPost   = "blog_post"
	TeamMember = "team_member"
	Lead       = "lead"
	HeroSlide  = "hero_slide"
	Settings   = "settings"
)

type compiled struct {
	create map[string]*jsonschema.Schema
	patch  map[string]*jsonschema.Schema
}

var load = sync.OnceValues(compile)

func compile() (*compiled, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("reading schemas: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true

	var names []string
	for _, e := range entries {
		data, err := files.ReadFile(e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", e.Name(), err)
		}
		if err := c.AddResource(e.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("adding schema %s: %w", e.Name(), err)
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}

	out := &compiled{
		create: make(map[string]*jsonschema.Schema, len(names)),
		patch:  make(map[string]*jsonschema.Schema, len(names)),
	}
	for _, name := range names {
		if out.create[name], err = c.Compile(name + ".json"); err != nil {
			return nil, fmt.Errorf("compiling schema %s: %w", name, err)
		}
		if out.patch[name], err = c.Compile(name + ".json#/$defs/fields"); err != nil {
			return nil, fmt.Errorf("compiling schema %s fields: %w", name, err)
		}
	}
	return out, nil
}

// Validate checks a create payload. Violations are returned as
// *model.ValidationError.
func Validate(name string, body []byte) error {
	return validate(name, body, false)
}

// ValidatePatch checks an update payload, in which every field is optional.
func ValidatePatch(name string, body []byte) error {
	return validate(name, body, true)
}

func validate(name string, body []byte, patch bool) error {
	c, err := load()
	if err != nil {
		return err
	}

	set := c.create
	if patch {
		set = c.patch
	}
	sch, ok := set[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return &model.ValidationError{Message: "request body is not valid JSON"}
	}

	if err := sch.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return toValidationError(verr)
		}
		return fmt.Errorf("validating %s: %w", name, err)
	}
	return nil
}

// toValidationError reports the first leaf violation.
func toValidationError(e *jsonschema.ValidationError) *model.ValidationError {
	for len(e.Causes) > 0 {
		e = e.Causes[0]
	}
	field := strings.ReplaceAll(strings.TrimPrefix(e.InstanceLocation, "/"), "/", ".")
	return &model.ValidationError{Field: field, Message: e.Message}
}
