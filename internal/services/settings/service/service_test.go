package service

import (
	"context"
	"errors"
	"testing"

	"modguard/internal/services/settings/domain"
)

type fakeStore struct {
	saved   []domain.Settings
	loadOut domain.Settings
	loadOK  bool
	loadErr error
	saveErr error
}

func (f *fakeStore) Load(context.Context) (domain.Settings, bool, error) {
	return f.loadOut, f.loadOK, f.loadErr
}

func (f *fakeStore) Save(_ context.Context, s domain.Settings) error {
	f.saved = append(f.saved, s)
	return f.saveErr
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func TestStart_LoadsPersistedSettings(t *testing.T) {
	st := &fakeStore{loadOut: func() domain.Settings {
		s := domain.Defaults()
		s.RapidThreshold = 8
		return s
	}(), loadOK: true}

	svc := New(st)
	svc.Start(context.Background())

	if got := svc.Current().Settings.RapidThreshold; got != 8 {
		t.Fatalf("RapidThreshold = %d, want persisted 8", got)
	}
}

func TestStart_LoadFailureKeepsDefaults(t *testing.T) {
	svc := New(&fakeStore{loadErr: errors.New("pg down")})
	svc.Start(context.Background())

	d := domain.Defaults()
	if got := svc.Current().Settings.RapidThreshold; got != d.RapidThreshold {
		t.Fatalf("RapidThreshold = %d, want default %d", got, d.RapidThreshold)
	}
}

func TestUpdate_SwapsAndPersists(t *testing.T) {
	st := &fakeStore{}
	svc := New(st)

	sn, err := svc.Update(context.Background(), domain.Patch{
		MentionThreshold: intp(9),
		AutoDelete:       boolp(true),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if sn.Settings.MentionThreshold != 9 || !sn.Settings.AutoDelete {
		t.Fatalf("patch not applied: %+v", sn.Settings)
	}
	if len(st.saved) != 1 {
		t.Fatalf("Save called %d times, want 1", len(st.saved))
	}
	if svc.Current() != sn {
		t.Fatalf("Current does not return the swapped snapshot")
	}
}

func TestUpdate_SaveFailureStillSwaps(t *testing.T) {
	st := &fakeStore{saveErr: errors.New("pg down")}
	svc := New(st)

	sn, err := svc.Update(context.Background(), domain.Patch{RapidThreshold: intp(7)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if sn.Settings.RapidThreshold != 7 {
		t.Fatalf("in-memory swap lost on save failure")
	}
}

func TestWatch_FiresImmediatelyAndOnSwap(t *testing.T) {
	svc := New(nil)

	var seen []*domain.Snapshot
	svc.Watch(func(sn *domain.Snapshot) { seen = append(seen, sn) })

	if len(seen) != 1 {
		t.Fatalf("watcher fired %d times on register, want 1", len(seen))
	}
	if _, err := svc.Update(context.Background(), domain.Patch{Enabled: boolp(false)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("watcher fired %d times after update, want 2", len(seen))
	}
	if seen[1].Settings.Enabled {
		t.Fatalf("watcher got stale snapshot")
	}
}

func TestSnapshot_Exempt(t *testing.T) {
	s := domain.Defaults()
	s.WhitelistActors = []string{"staff-1"}
	s.WhitelistChannels = []string{"chan-logs"}
	s.WhitelistRoles = []string{"role-mod"}
	sn := domain.NewSnapshot(s)

	cases := []struct {
		actor, channel string
		roles          []string
		want           bool
	}{
		{"staff-1", "", nil, true},
		{"user-9", "chan-logs", nil, true},
		{"user-9", "chan-general", []string{"role-member", "role-mod"}, true},
		{"user-9", "chan-general", []string{"role-member"}, false},
	}
	for _, tc := range cases {
		if got := sn.Exempt(tc.actor, tc.channel, tc.roles); got != tc.want {
			t.Fatalf("Exempt(%q,%q,%v) = %v, want %v", tc.actor, tc.channel, tc.roles, got, tc.want)
		}
	}
}

func TestSnapshot_ScopeToggle(t *testing.T) {
	s := domain.Defaults()
	s.DisabledScopes = []string{"scope-off"}
	sn := domain.NewSnapshot(s)

	if sn.ScopeEnabled("scope-off") {
		t.Fatalf("disabled scope reported enabled")
	}
	if !sn.ScopeEnabled("scope-on") {
		t.Fatalf("other scope reported disabled")
	}

	s.Enabled = false
	sn = domain.NewSnapshot(s)
	if sn.ScopeEnabled("scope-on") {
		t.Fatalf("global kill switch ignored")
	}
}

func TestSnapshot_SanitizesBadThresholds(t *testing.T) {
	s := domain.Defaults()
	s.RapidThreshold = -4
	s.RaidWindowSec = 0
	sn := domain.NewSnapshot(s)

	if sn.Detect.RapidThreshold <= 0 {
		t.Fatalf("negative rapid threshold survived sanitize: %d", sn.Detect.RapidThreshold)
	}
	if sn.Raid.Window <= 0 {
		t.Fatalf("zero raid window survived sanitize: %v", sn.Raid.Window)
	}
}
