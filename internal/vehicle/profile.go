// Package vehicle implements the agent runtime the devices act on:
// behavioral profiles with copy-on-first-mutation semantics, the
// influencer channel for externally imposed speed and lane-change
// constraints, and a pluggable lane-change model surface.
package vehicle

import (
	"fmt"

	"github.com/opensimlab/rescuelane/internal/network"
	"github.com/opensimlab/rescuelane/internal/simerr"
)

// Alignment is a preferred lateral position within the roadway.
type Alignment string

const (
	AlignRight     Alignment = "right"
	AlignLeft      Alignment = "left"
	AlignCenter    Alignment = "center"
	AlignArbitrary Alignment = "arbitrary"
)

// Lane-change model parameter keys shared by all models.
const (
	LCParamStrategic          = "lcStrategic"
	LCParamSpeedGainLookahead = "lcSpeedGainLookahead"
	LCParamMinGapLat          = "minGapLat"
)

// Profile is a named bundle of behavioral parameters. A profile is
// either shared by a class of vehicles or private (singular) to one
// vehicle; mutation of a single vehicle's behavior always goes
// through a singular clone so the shared bundle stays untouched.
type Profile struct {
	id          string
	original    string // id of the profile this was cloned from, "" for base profiles
	singularFor string // vehicle id this profile is private to, "" if shared

	Class                 network.Class
	SpeedFactor           float64
	Length                float64
	Width                 float64
	MinGap                float64
	MinGapLat             float64
	Alignment             Alignment
	CollisionMinGapFactor float64
	StopLineGap           float64

	// declared lane-change parameter defaults
	LCParams map[string]string
}

// NewProfile creates a shared base profile with conventional
// passenger-car defaults.
func NewProfile(id string) *Profile {
	return &Profile{
		id:                    id,
		Class:                 network.ClassPassenger,
		SpeedFactor:           1.0,
		Length:                4.5,
		Width:                 1.8,
		MinGap:                2.5,
		MinGapLat:             0.6,
		Alignment:             AlignCenter,
		CollisionMinGapFactor: 1.0,
		StopLineGap:           1.0,
		LCParams:              map[string]string{},
	}
}

// ID returns the profile identifier.
func (p *Profile) ID() string { return p.id }

// OriginalID returns the id of the base profile this one descends
// from, or its own id for base profiles.
func (p *Profile) OriginalID() string {
	if p.original == "" {
		return p.id
	}
	return p.original
}

// IsSingular reports whether this profile is private to one vehicle.
func (p *Profile) IsSingular() bool { return p.singularFor != "" }

// SingularFor returns the owning vehicle id of a singular profile.
func (p *Profile) SingularFor() string { return p.singularFor }

// LCParam returns the declared default for a lane-change parameter,
// or def when the profile does not declare one.
func (p *Profile) LCParam(key, def string) string {
	if v, ok := p.LCParams[key]; ok {
		return v
	}
	return def
}

func (p *Profile) clone(id, vehicleID string) *Profile {
	c := *p
	c.id = id
	c.original = p.OriginalID()
	c.singularFor = vehicleID
	c.LCParams = make(map[string]string, len(p.LCParams))
	for k, v := range p.LCParams {
		c.LCParams[k] = v
	}
	return &c
}

// ProfileStore owns all live profiles. Lookup of a removed profile
// returns nil, which restoration paths treat as "already restored".
type ProfileStore struct {
	profiles map[string]*Profile
}

// NewProfileStore returns an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]*Profile)}
}

// Add registers a profile.
func (s *ProfileStore) Add(p *Profile) error {
	if _, ok := s.profiles[p.id]; ok {
		return simerr.InvalidArgumentf("profile '%s' already registered", p.id)
	}
	s.profiles[p.id] = p
	return nil
}

// Get looks up a profile by id, nil if absent.
func (s *ProfileStore) Get(id string) *Profile { return s.profiles[id] }

// Remove deletes a profile from the store.
func (s *ProfileStore) Remove(id string) { delete(s.profiles, id) }

// Singularize clones base into a profile private to the given
// vehicle and registers it. The clone id encodes the owner so
// repeated singularization of the same pair stays stable.
func (s *ProfileStore) Singularize(base *Profile, vehicleID string) *Profile {
	id := fmt.Sprintf("%s@%s", base.OriginalID(), vehicleID)
	if existing := s.profiles[id]; existing != nil {
		return existing
	}
	c := base.clone(id, vehicleID)
	s.profiles[id] = c
	return c
}
