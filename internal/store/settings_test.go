package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/erazemk/estatedesk/internal/model"
)

func TestSettingsDefaultsAndPut(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	got, err := s.Settings.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SiteName != model.DefaultSettings().SiteName {
		t.Errorf("expected default site name, got %q", got.SiteName)
	}

	saved, err := s.Settings.Put(ctx, func(st *model.Settings) error {
		return json.Unmarshal([]byte(`{"tagline":"Homes in Addis","social":{"telegram":"https://t.me/x"}}`), st)
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be stamped")
	}

	// A second put merges into the saved document.
	_, err = s.Settings.Put(ctx, func(st *model.Settings) error {
		st.ContactPhone = "+251 911 000000"
		return nil
	})
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err = s.Settings.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Tagline != "Homes in Addis" || got.ContactPhone != "+251 911 000000" {
		t.Errorf("unexpected settings %+v", got)
	}
	if got.Social["telegram"] != "https://t.me/x" {
		t.Errorf("expected social link to persist, got %v", got.Social)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Error("expected createdAt to be preserved")
	}
}

func TestSettingsPutRejectsInvalid(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Settings.Put(context.Background(), func(st *model.Settings) error {
		st.ContactEmail = "not-an-email"
		return nil
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}
