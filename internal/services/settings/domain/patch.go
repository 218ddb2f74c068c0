package domain

// Patch is a partial settings update; nil fields are left unchanged.
// Validation tags run in the HTTP bind layer before Apply
type Patch struct {
	Enabled *bool `json:"enabled"`

	RapidThreshold     *int `json:"rapid_threshold" validate:"omitempty,min=1,max=1000"`
	RapidWindowSec     *int `json:"rapid_window_sec" validate:"omitempty,min=1,max=3600"`
	IdenticalThreshold *int `json:"identical_threshold" validate:"omitempty,min=1,max=1000"`
	IdenticalWindowSec *int `json:"identical_window_sec" validate:"omitempty,min=1,max=3600"`
	LinkThreshold      *int `json:"link_threshold" validate:"omitempty,min=1,max=1000"`
	LinkWindowSec      *int `json:"link_window_sec" validate:"omitempty,min=1,max=3600"`
	MentionThreshold   *int `json:"mention_threshold" validate:"omitempty,min=1,max=1000"`
	MentionWindowSec   *int `json:"mention_window_sec" validate:"omitempty,min=1,max=3600"`

	RaidThreshold     *int `json:"raid_threshold" validate:"omitempty,min=2,max=1000"`
	RaidWindowSec     *int `json:"raid_window_sec" validate:"omitempty,min=10,max=86400"`
	NewAccountAgeDays *int `json:"new_account_age_days" validate:"omitempty,min=1,max=365"`

	WhitelistActors   *[]string `json:"whitelist_actors" validate:"omitempty,dive,required"`
	WhitelistChannels *[]string `json:"whitelist_channels" validate:"omitempty,dive,required"`
	WhitelistRoles    *[]string `json:"whitelist_roles" validate:"omitempty,dive,required"`

	AutoDelete      *bool `json:"auto_delete"`
	AutoMute        *bool `json:"auto_mute"`
	AutoKick        *bool `json:"auto_kick"`
	KickCapPerBurst *int  `json:"kick_cap_per_burst" validate:"omitempty,min=1,max=500"`

	DisabledScopes *[]string `json:"disabled_scopes" validate:"omitempty,dive,required"`
}

// Apply overlays the patch on s and returns the result
func (p Patch) Apply(s Settings) Settings {
	setBool(&s.Enabled, p.Enabled)
	setInt(&s.RapidThreshold, p.RapidThreshold)
	setInt(&s.RapidWindowSec, p.RapidWindowSec)
	setInt(&s.IdenticalThreshold, p.IdenticalThreshold)
	setInt(&s.IdenticalWindowSec, p.IdenticalWindowSec)
	setInt(&s.LinkThreshold, p.LinkThreshold)
	setInt(&s.LinkWindowSec, p.LinkWindowSec)
	setInt(&s.MentionThreshold, p.MentionThreshold)
	setInt(&s.MentionWindowSec, p.MentionWindowSec)
	setInt(&s.RaidThreshold, p.RaidThreshold)
	setInt(&s.RaidWindowSec, p.RaidWindowSec)
	setInt(&s.NewAccountAgeDays, p.NewAccountAgeDays)
	setSlice(&s.WhitelistActors, p.WhitelistActors)
	setSlice(&s.WhitelistChannels, p.WhitelistChannels)
	setSlice(&s.WhitelistRoles, p.WhitelistRoles)
	setBool(&s.AutoDelete, p.AutoDelete)
	setBool(&s.AutoMute, p.AutoMute)
	setBool(&s.AutoKick, p.AutoKick)
	setInt(&s.KickCapPerBurst, p.KickCapPerBurst)
	setSlice(&s.DisabledScopes, p.DisabledScopes)
	return s
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setSlice(dst *[]string, v *[]string) {
	if v != nil {
		*dst = append([]string(nil), (*v)...)
	}
}
