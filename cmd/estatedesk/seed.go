package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/schema"
	"github.com/erazemk/estatedesk/internal/store"
)

// seedFile is the YAML layout accepted by the seed command. Entries use the
// same field names as the JSON API.
type seedFile struct {
	Settings   map[string]any   `yaml:"settings"`
	Properties []map[string]any `yaml:"properties"`
	Blog       []map[string]any `yaml:"blog"`
	Team       []map[string]any `yaml:"team"`
	HeroSlides []map[string]any `yaml:"heroSlides"`
}

type seedStats struct {
	Properties int
	Posts      int
	Team       int
	Slides     int
	Skipped    int
}

// seed loads demo content. Entries that conflict with existing records are
// skipped, so seeding twice is harmless for slugged documents.
func seed(ctx context.Context, st *store.Store, r io.Reader) (seedStats, error) {
	var stats seedStats

	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return stats, fmt.Errorf("parsing seed file: %w", err)
	}

	if f.Settings != nil {
		body, err := decodeEntry(schema.Settings, f.Settings, true)
		if err != nil {
			return stats, fmt.Errorf("settings: %w", err)
		}
		if _, err := st.Settings.Put(ctx, func(s *model.Settings) error {
			return json.Unmarshal(body, s)
		}); err != nil {
			return stats, fmt.Errorf("saving settings: %w", err)
		}
	}

	for i, entry := range f.Properties {
		var p model.Property
		ok, err := load(ctx, schema.Property, entry, &p, func() error {
			_, err := st.Properties.Create(ctx, p)
			return err
		})
		if err != nil {
			return stats, fmt.Errorf("property %d: %w", i, err)
		}
		count(&stats, &stats.Properties, ok)
	}

	for i, entry := range f.Blog {
		var b model.BlogPost
		ok, err := load(ctx, schema.BlogPost, entry, &b, func() error {
			_, err := st.Blog.Create(ctx, b)
			return err
		})
		if err != nil {
			return stats, fmt.Errorf("blog post %d: %w", i, err)
		}
		count(&stats, &stats.Posts, ok)
	}

	for i, entry := range f.Team {
		var m model.TeamMember
		ok, err := load(ctx, schema.TeamMember, entry, &m, func() error {
			_, err := st.Team.Create(ctx, m)
			return err
		})
		if err != nil {
			return stats, fmt.Errorf("team member %d: %w", i, err)
		}
		count(&stats, &stats.Team, ok)
	}

	for i, entry := range f.HeroSlides {
		var s model.HeroSlide
		ok, err := load(ctx, schema.HeroSlide, entry, &s, func() error {
			_, err := st.Hero.Create(ctx, s)
			return err
		})
		if err != nil {
			return stats, fmt.Errorf("hero slide %d: %w", i, err)
		}
		count(&stats, &stats.Slides, ok)
	}

	return stats, nil
}

func count(stats *seedStats, n *int, created bool) {
	if created {
		*n++
	} else {
		stats.Skipped++
	}
}

// load validates entry against the named schema, decodes it into dst and
// calls create. A conflict is reported as (false, nil).
func load(ctx context.Context, name string, entry map[string]any, dst any, create func() error) (bool, error) {
	body, err := decodeEntry(name, entry, false)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return false, fmt.Errorf("decoding: %w", err)
	}

	if err := create(); err != nil {
		if errors.Is(err, store.ErrConflict) {
			slog.Warn("skipping existing record", "kind", name, "error", err)
			return false, nil
		}
		return false, err
	}
	return true, ctx.Err()
}

// decodeEntry re-encodes a YAML mapping as JSON and checks it against the
// request schema.
func decodeEntry(name string, entry map[string]any, patch bool) ([]byte, error) {
	body, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}

	validate := schema.Validate
	if patch {
		validate = schema.ValidatePatch
	}
	if err := validate(name, body); err != nil {
		return nil, err
	}
	return body, nil
}
