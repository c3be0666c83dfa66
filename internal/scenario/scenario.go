// Package scenario loads simulation scenarios from YAML: the roadway
// edges and their connectivity, conflict links, behavioral profiles
// and the initial fleet, including which vehicles carry the priority
// device.
package scenario

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opensimlab/rescuelane/internal/config"
	"github.com/opensimlab/rescuelane/internal/device/bluelight"
	"github.com/opensimlab/rescuelane/internal/network"
	"github.com/opensimlab/rescuelane/internal/sim"
	"github.com/opensimlab/rescuelane/internal/simerr"
	"github.com/opensimlab/rescuelane/internal/units"
	"github.com/opensimlab/rescuelane/internal/vehicle"
)

// Scenario is the YAML document describing one simulation setup.
type Scenario struct {
	Name     string        `yaml:"name"`
	Profiles []ProfileDef  `yaml:"profiles"`
	Edges    []EdgeDef     `yaml:"edges"`
	Links    []LinkDef     `yaml:"links"`
	Connects []ConnectDef  `yaml:"connections"`
	Interns  []InternalDef `yaml:"internal_followers"`
	Vehicles []VehicleDef  `yaml:"vehicles"`
}

// ProfileDef declares a shared behavioral profile.
type ProfileDef struct {
	ID          string  `yaml:"id"`
	Class       string  `yaml:"class"`
	SpeedFactor float64 `yaml:"speed_factor"`
	Length      float64 `yaml:"length"`
	Width       float64 `yaml:"width"`
	MinGap      float64 `yaml:"min_gap"`
	MinGapLat   float64 `yaml:"min_gap_lat"`
}

// EdgeDef declares one edge with parallel lanes.
type EdgeDef struct {
	ID         string    `yaml:"id"`
	Lanes      int       `yaml:"lanes"`
	Length     float64   `yaml:"length"`
	Width      float64   `yaml:"width"`
	SpeedLimit float64   `yaml:"speed_limit"`
	Internal   bool      `yaml:"internal"`
	Origin     []float64 `yaml:"origin"`    // optional [x, y]
	Direction  []float64 `yaml:"direction"` // optional [dx, dy], unit
}

// LinkDef declares a junction-conflict link on an internal lane.
type LinkDef struct {
	ID   string   `yaml:"id"`
	Via  string   `yaml:"via"`
	Foes []string `yaml:"foes"`
}

// ConnectDef declares a lane continuation, optionally across a link.
type ConnectDef struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Link string `yaml:"link"`
}

// InternalDef declares the internal edge crossed between two normal
// edges.
type InternalDef struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Via  string `yaml:"via"`
}

// VehicleDef declares one initial vehicle.
type VehicleDef struct {
	ID           string        `yaml:"id"`
	Profile      string        `yaml:"profile"`
	Edge         string        `yaml:"edge"`
	Lane         int           `yaml:"lane"`
	Pos          float64       `yaml:"pos"`
	Speed        float64       `yaml:"speed"`
	DesiredSpeed float64       `yaml:"desired_speed"`
	Route        []string      `yaml:"route"`
	ActionStepMS int64         `yaml:"action_step_ms"`
	Bluelight    *BluelightDef `yaml:"bluelight"`
}

// BluelightDef equips a vehicle with the priority device, overriding
// the configured defaults where set.
type BluelightDef struct {
	ReactionDist *float64 `yaml:"reactiondist"`
	MinGapFactor *float64 `yaml:"mingapfactor"`
	Activated    *bool    `yaml:"activated"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.ScenarioError(err, "failed to read scenario file")
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, simerr.ScenarioError(err, "failed to parse scenario file")
	}
	if len(s.Edges) == 0 {
		return nil, simerr.ScenarioErrorf(nil, "scenario '%s' declares no edges", s.Name)
	}
	return &s, nil
}

// Build assembles the network, fleet and engine for this scenario.
func (s *Scenario) Build(cfg *config.Config) (*sim.Engine, error) {
	net := network.New()
	store := vehicle.NewProfileStore()
	fleet := vehicle.NewFleet(store)
	engine := sim.NewEngine(net, fleet, units.Time(cfg.Sim.StepLengthMS), cfg.Sim.Seed)

	if err := s.buildNetwork(net); err != nil {
		return nil, err
	}
	if err := s.buildProfiles(store); err != nil {
		return nil, err
	}
	if err := s.buildFleet(net, store, fleet, engine, cfg.Device); err != nil {
		return nil, err
	}
	return engine, nil
}

func (s *Scenario) buildNetwork(net *network.Network) error {
	x := 0.0
	for _, ed := range s.Edges {
		width := ed.Width
		if width == 0 {
			width = 3.2
		}
		limit := ed.SpeedLimit
		if limit == 0 {
			limit = 13.89
		}
		lanes := ed.Lanes
		if lanes == 0 {
			lanes = 1
		}
		e, err := net.AddEdge(ed.ID, lanes, ed.Length, width, limit, ed.Internal)
		if err != nil {
			return err
		}
		// default geometry chains edges along the x axis; explicit
		// origins and directions override for crossing approaches
		ox, oy := x, 0.0
		dx, dy := 1.0, 0.0
		if len(ed.Origin) == 2 {
			ox, oy = ed.Origin[0], ed.Origin[1]
		}
		if len(ed.Direction) == 2 {
			dx, dy = ed.Direction[0], ed.Direction[1]
		}
		for _, l := range e.Lanes() {
			nx, ny := -dy, dx
			off := float64(l.Index()) * width
			l.SetGeometry(ox+nx*off, oy+ny*off, dx, dy)
		}
		if len(ed.Origin) != 2 {
			x += ed.Length
		}
	}

	for _, ld := range s.Links {
		via := net.Lane(ld.Via)
		if via == nil {
			return simerr.ScenarioErrorf(nil, "link '%s' references unknown lane '%s'", ld.ID, ld.Via)
		}
		var foes []*network.Lane
		for _, f := range ld.Foes {
			fl := net.Lane(f)
			if fl == nil {
				return simerr.ScenarioErrorf(nil, "link '%s' references unknown foe lane '%s'", ld.ID, f)
			}
			foes = append(foes, fl)
		}
		if _, err := net.AddLink(ld.ID, via, foes...); err != nil {
			return err
		}
	}

	for _, cd := range s.Connects {
		from, to := net.Lane(cd.From), net.Lane(cd.To)
		if from == nil || to == nil {
			return simerr.ScenarioErrorf(nil, "connection %s -> %s references unknown lane", cd.From, cd.To)
		}
		var via *network.Link
		if cd.Link != "" {
			via = net.Link(cd.Link)
			if via == nil {
				return simerr.ScenarioErrorf(nil, "connection %s -> %s references unknown link '%s'", cd.From, cd.To, cd.Link)
			}
		}
		network.Connect(from, to, via)
	}

	for _, id := range s.Interns {
		from, to, via := net.Edge(id.From), net.Edge(id.To), net.Edge(id.Via)
		if from == nil || to == nil || via == nil {
			return simerr.ScenarioErrorf(nil, "internal follower %s -> %s via %s references unknown edge", id.From, id.To, id.Via)
		}
		from.SetInternalFollower(to, via)
	}
	return nil
}

func (s *Scenario) buildProfiles(store *vehicle.ProfileStore) error {
	for _, pd := range s.Profiles {
		p := vehicle.NewProfile(pd.ID)
		if pd.Class != "" {
			p.Class = network.Class(pd.Class)
		}
		if pd.SpeedFactor != 0 {
			p.SpeedFactor = pd.SpeedFactor
		}
		if pd.Length != 0 {
			p.Length = pd.Length
		}
		if pd.Width != 0 {
			p.Width = pd.Width
		}
		if pd.MinGap != 0 {
			p.MinGap = pd.MinGap
		}
		if pd.MinGapLat != 0 {
			p.MinGapLat = pd.MinGapLat
		}
		if err := store.Add(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) buildFleet(net *network.Network, store *vehicle.ProfileStore, fleet *vehicle.Fleet, engine *sim.Engine, devCfg config.DeviceConfig) error {
	for _, vd := range s.Vehicles {
		p := store.Get(vd.Profile)
		if p == nil {
			return simerr.ScenarioErrorf(nil, "vehicle '%s' references unknown profile '%s'", vd.ID, vd.Profile)
		}
		var route []*network.Edge
		for _, eid := range vd.Route {
			e := net.Edge(eid)
			if e == nil {
				return simerr.ScenarioErrorf(nil, "vehicle '%s' route references unknown edge '%s'", vd.ID, eid)
			}
			route = append(route, e)
		}
		v := vehicle.New(vd.ID, p, store, route)
		if vd.ActionStepMS > 0 {
			v.SetActionStepLength(units.Time(vd.ActionStepMS))
		}
		if vd.DesiredSpeed > 0 {
			v.SetDesiredSpeed(vd.DesiredSpeed)
		}

		if vd.Bluelight != nil {
			dc := devCfg
			if vd.Bluelight.ReactionDist != nil {
				dc.ReactionDist = *vd.Bluelight.ReactionDist
			}
			if vd.Bluelight.MinGapFactor != nil {
				dc.MinGapFactor = *vd.Bluelight.MinGapFactor
			}
			if vd.Bluelight.Activated != nil {
				dc.Activated = *vd.Bluelight.Activated
			}
			v.AttachDevice(bluelight.New(v, fleet, engine, engine.RNG(), dc))
		}

		edge := net.Edge(vd.Edge)
		if edge == nil {
			return simerr.ScenarioErrorf(nil, "vehicle '%s' starts on unknown edge '%s'", vd.ID, vd.Edge)
		}
		lane := edge.Lane(vd.Lane)
		if lane == nil {
			return simerr.ScenarioErrorf(nil, "vehicle '%s' starts on unknown lane index %d of edge '%s'", vd.ID, vd.Lane, vd.Edge)
		}
		engine.Insert(v, lane, vd.Pos, vd.Speed)
	}
	return nil
}
