// Package domain defines the engine settings model and its immutable snapshot
package domain

import (
	"time"

	"modguard/internal/core/detect"
	"modguard/internal/core/raid"
)

// Settings is the full mutable configuration surface.
// Persisted as one document; every read path goes through a Snapshot
type Settings struct {
	Enabled bool `json:"enabled"`

	RapidThreshold     int `json:"rapid_threshold"`
	RapidWindowSec     int `json:"rapid_window_sec"`
	IdenticalThreshold int `json:"identical_threshold"`
	IdenticalWindowSec int `json:"identical_window_sec"`
	LinkThreshold      int `json:"link_threshold"`
	LinkWindowSec      int `json:"link_window_sec"`
	MentionThreshold   int `json:"mention_threshold"`
	MentionWindowSec   int `json:"mention_window_sec"`

	RaidThreshold     int `json:"raid_threshold"`
	RaidWindowSec     int `json:"raid_window_sec"`
	NewAccountAgeDays int `json:"new_account_age_days"`

	WhitelistActors   []string `json:"whitelist_actors"`
	WhitelistChannels []string `json:"whitelist_channels"`
	WhitelistRoles    []string `json:"whitelist_roles"`

	AutoDelete      bool `json:"auto_delete"`
	AutoMute        bool `json:"auto_mute"`
	AutoKick        bool `json:"auto_kick"`
	KickCapPerBurst int  `json:"kick_cap_per_burst"`

	DisabledScopes []string `json:"disabled_scopes"`
}

// Defaults returns the stock settings: detection on, automation off
func Defaults() Settings {
	dc := detect.DefaultConfig()
	rc := raid.DefaultConfig()
	return Settings{
		Enabled:            true,
		RapidThreshold:     dc.RapidThreshold,
		RapidWindowSec:     int(dc.RapidWindow / time.Second),
		IdenticalThreshold: dc.IdenticalThreshold,
		IdenticalWindowSec: int(dc.IdenticalWindow / time.Second),
		LinkThreshold:      dc.LinkThreshold,
		LinkWindowSec:      int(dc.LinkWindow / time.Second),
		MentionThreshold:   dc.MentionThreshold,
		MentionWindowSec:   int(dc.MentionWindow / time.Second),
		RaidThreshold:      rc.Threshold,
		RaidWindowSec:      int(rc.Window / time.Second),
		NewAccountAgeDays:  int(rc.NewAccountAge / (24 * time.Hour)),
		KickCapPerBurst:    10,
	}
}

// DetectConfig maps the settings onto the detector tuning, sanitized
func (s Settings) DetectConfig() detect.Config {
	return detect.Config{
		RapidThreshold:     s.RapidThreshold,
		RapidWindow:        time.Duration(s.RapidWindowSec) * time.Second,
		IdenticalThreshold: s.IdenticalThreshold,
		IdenticalWindow:    time.Duration(s.IdenticalWindowSec) * time.Second,
		LinkThreshold:      s.LinkThreshold,
		LinkWindow:         time.Duration(s.LinkWindowSec) * time.Second,
		MentionThreshold:   s.MentionThreshold,
		MentionWindow:      time.Duration(s.MentionWindowSec) * time.Second,
	}.Sanitized()
}

// RaidConfig maps the settings onto the raid tuning, sanitized
func (s Settings) RaidConfig() raid.Config {
	return raid.Config{
		Window:        time.Duration(s.RaidWindowSec) * time.Second,
		Threshold:     s.RaidThreshold,
		NewAccountAge: time.Duration(s.NewAccountAgeDays) * 24 * time.Hour,
	}.Sanitized()
}

// Snapshot is an immutable, lookup-optimized view of Settings.
// Readers hold one snapshot for a whole pipeline pass so thresholds and
// whitelist never change mid-evaluation
type Snapshot struct {
	Settings Settings
	Detect   detect.Config
	Raid     raid.Config

	actors   map[string]struct{}
	channels map[string]struct{}
	roles    map[string]struct{}
	disabled map[string]struct{}
}

// NewSnapshot sanitizes s and builds the lookup sets
func NewSnapshot(s Settings) *Snapshot {
	if s.KickCapPerBurst <= 0 {
		s.KickCapPerBurst = Defaults().KickCapPerBurst
	}
	sn := &Snapshot{
		Settings: s,
		Detect:   s.DetectConfig(),
		Raid:     s.RaidConfig(),
		actors:   toSet(s.WhitelistActors),
		channels: toSet(s.WhitelistChannels),
		roles:    toSet(s.WhitelistRoles),
		disabled: toSet(s.DisabledScopes),
	}
	return sn
}

func toSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			m[id] = struct{}{}
		}
	}
	return m
}

// Exempt reports whether the actor, channel or any held role is whitelisted
func (sn *Snapshot) Exempt(actorID, channelID string, roles []string) bool {
	if _, ok := sn.actors[actorID]; ok {
		return true
	}
	if channelID != "" {
		if _, ok := sn.channels[channelID]; ok {
			return true
		}
	}
	for _, r := range roles {
		if _, ok := sn.roles[r]; ok {
			return true
		}
	}
	return false
}

// ScopeEnabled reports whether detection runs for the scope
func (sn *Snapshot) ScopeEnabled(scopeID string) bool {
	if !sn.Settings.Enabled {
		return false
	}
	_, off := sn.disabled[scopeID]
	return !off
}
