package types

import (
	"encoding/json"
	"time"
)

// Agent is the player profile from /api/agent.
type Agent struct {
	// AccountID is only present for the authenticated agent.
	AccountID       string `json:"accountId,omitempty"`
	Symbol          string `json:"symbol"`
	Headquarters    string `json:"headquarters"`
	Credits         int64  `json:"credits"`
	StartingFaction string `json:"startingFaction"`
	ShipCount       int    `json:"shipCount"`
}

// NavStatus is owned by the server and gates which actions are valid.
type NavStatus string

const (
	NavInOrbit   NavStatus = "IN_ORBIT"
	NavDocked    NavStatus = "DOCKED"
	NavInTransit NavStatus = "IN_TRANSIT"
)

func (s NavStatus) Valid() bool {
	switch s {
	case NavInOrbit, NavDocked, NavInTransit:
		return true
	}
	return false
}

type RouteWaypoint struct {
	Symbol       string `json:"symbol"`
	Type         string `json:"type"`
	SystemSymbol string `json:"systemSymbol"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
}

type NavRoute struct {
	Origin        RouteWaypoint `json:"origin"`
	Destination   RouteWaypoint `json:"destination"`
	DepartureTime time.Time     `json:"departureTime"`
	Arrival       time.Time     `json:"arrival"`
}

type ShipNav struct {
	SystemSymbol   string    `json:"systemSymbol"`
	WaypointSymbol string    `json:"waypointSymbol"`
	Route          NavRoute  `json:"route"`
	Status         NavStatus `json:"status"`
	FlightMode     string    `json:"flightMode"`
}

type ShipRegistration struct {
	Name          string `json:"name"`
	FactionSymbol string `json:"factionSymbol"`
	Role          string `json:"role"`
}

// ShipCrew is the crew summary carried on the ship itself.
type ShipCrew struct {
	Current  int    `json:"current"`
	Required int    `json:"required"`
	Capacity int    `json:"capacity"`
	Rotation string `json:"rotation,omitempty"`
	Morale   int    `json:"morale"`
	Wages    int    `json:"wages,omitempty"`
}

// Component covers frame, reactor and engine which share a shape.
type Component struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Condition   float64 `json:"condition,omitempty"`
	Integrity   float64 `json:"integrity,omitempty"`
}

type Module struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Capacity    int    `json:"capacity,omitempty"`
	Range       int    `json:"range,omitempty"`
}

type Mount struct {
	Symbol      string   `json:"symbol"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Strength    int      `json:"strength,omitempty"`
	Deposits    []string `json:"deposits,omitempty"`
}

type CargoItem struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Units       int    `json:"units"`
}

type Cargo struct {
	Capacity  int         `json:"capacity"`
	Units     int         `json:"units"`
	Inventory []CargoItem `json:"inventory"`
}

type Fuel struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
}

// Cooldown is the reactor cooldown the server enforces after jumps and scans.
type Cooldown struct {
	ShipSymbol       string     `json:"shipSymbol"`
	TotalSeconds     int        `json:"totalSeconds"`
	RemainingSeconds int        `json:"remainingSeconds"`
	Expiration       *time.Time `json:"expiration,omitempty"`
}

func (c *Cooldown) Active() bool {
	return c != nil && c.RemainingSeconds > 0
}

type Ship struct {
	Symbol       string           `json:"symbol"`
	Registration ShipRegistration `json:"registration"`
	Nav          ShipNav          `json:"nav"`
	Crew         ShipCrew         `json:"crew"`
	Frame        Component        `json:"frame"`
	Reactor      Component        `json:"reactor"`
	Engine       Component        `json:"engine"`
	Cooldown     *Cooldown        `json:"cooldown,omitempty"`
	Modules      []Module         `json:"modules"`
	Mounts       []Mount          `json:"mounts"`
	Cargo        Cargo            `json:"cargo"`
	Fuel         Fuel             `json:"fuel"`
}

// CrewMember is an individual on a ship's crew roster.
type CrewMember struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Role    string         `json:"role"`
	Skills  map[string]int `json:"skills"`
	Health  int            `json:"health"`
	Morale  int            `json:"morale"`
	Station string         `json:"station,omitempty"`
}

type Deposit struct {
	Symbol string `json:"symbol"`
}

// Survey is a timed resource-extraction hint.
type Survey struct {
	Signature  string    `json:"signature"`
	Symbol     string    `json:"symbol"`
	Deposits   []Deposit `json:"deposits"`
	Expiration time.Time `json:"expiration"`
	Size       string    `json:"size"`
}

func (s Survey) Expired(now time.Time) bool {
	return !s.Expiration.IsZero() && !now.Before(s.Expiration)
}

// ScanResult is held only in the viewer's session. Data is passed through as
// the server returned it.
type ScanResult struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Cooldown  *Cooldown       `json:"cooldown,omitempty"`
	ScannedAt time.Time       `json:"scannedAt"`
}

// SecurityFeature names a toggle under /security/{feature}.
type SecurityFeature string

const (
	SecurityCloaking   SecurityFeature = "cloaking"
	SecurityJamming    SecurityFeature = "jamming"
	SecurityStealth    SecurityFeature = "stealth"
	SecurityEncryption SecurityFeature = "encryption"
)

var SecurityFeatures = []SecurityFeature{SecurityCloaking, SecurityJamming, SecurityStealth, SecurityEncryption}

func (f SecurityFeature) Valid() bool {
	for _, s := range SecurityFeatures {
		if f == s {
			return true
		}
	}
	return false
}

type SecurityStatus struct {
	Cloaking   bool `json:"cloaking"`
	Jamming    bool `json:"jamming"`
	Stealth    bool `json:"stealth"`
	Encryption bool `json:"encryption"`
}

// Enabled reports a feature's flag by name.
func (s SecurityStatus) Enabled(f SecurityFeature) bool {
	switch f {
	case SecurityCloaking:
		return s.Cloaking
	case SecurityJamming:
		return s.Jamming
	case SecurityStealth:
		return s.Stealth
	case SecurityEncryption:
		return s.Encryption
	}
	return false
}

type Subsystem struct {
	Name     string `json:"name"`
	Current  int    `json:"current"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status,omitempty"`
}

// ResourceStatus is the /resources payload: fuel, power, life support and friends.
type ResourceStatus struct {
	ShipSymbol string      `json:"shipSymbol"`
	Subsystems []Subsystem `json:"subsystems"`
	Cargo      Cargo       `json:"cargo"`
	Fuel       Fuel        `json:"fuel"`
}

type Equipment struct {
	Symbol       string            `json:"symbol"`
	Name         string            `json:"name"`
	Kind         string            `json:"type"`
	Description  string            `json:"description,omitempty"`
	Price        int64             `json:"price,omitempty"`
	Requirements map[string]int    `json:"requirements,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

type ModificationInfo struct {
	ShipSymbol     string      `json:"shipSymbol"`
	Modules        []Module    `json:"modules"`
	Mounts         []Mount     `json:"mounts"`
	ModuleSlots    int         `json:"moduleSlots"`
	MountingPoints int         `json:"mountingPoints"`
	Available      []Equipment `json:"available"`
	Name           string      `json:"name,omitempty"`
}

type Faction struct {
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Headquarters string   `json:"headquarters"`
	Traits       []Trait  `json:"traits"`
	IsRecruiting bool     `json:"isRecruiting"`
	Reputation   *int     `json:"reputation,omitempty"`
	Allies       []string `json:"allies,omitempty"`
}

type Trait struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type System struct {
	Symbol       string     `json:"symbol"`
	SectorSymbol string     `json:"sectorSymbol"`
	Type         string     `json:"type"`
	X            int        `json:"x"`
	Y            int        `json:"y"`
	Waypoints    []Waypoint `json:"waypoints,omitempty"`
	Factions     []struct {
		Symbol string `json:"symbol"`
	} `json:"factions,omitempty"`
}

type Waypoint struct {
	Symbol       string   `json:"symbol"`
	Type         string   `json:"type"`
	SystemSymbol string   `json:"systemSymbol"`
	X            int      `json:"x"`
	Y            int      `json:"y"`
	Orbitals     []string `json:"orbitals,omitempty"`
	Traits       []Trait  `json:"traits,omitempty"`
}

type Transaction struct {
	WaypointSymbol string    `json:"waypointSymbol"`
	ShipSymbol     string    `json:"shipSymbol"`
	Kind           string    `json:"type,omitempty"`
	TradeSymbol    string    `json:"tradeSymbol,omitempty"`
	Units          int       `json:"units,omitempty"`
	TotalPrice     int64     `json:"totalPrice"`
	Timestamp      time.Time `json:"timestamp"`
}

// Quote is returned by the GET side of /repair and /scrap.
type Quote struct {
	Transaction Transaction `json:"transaction"`
}

// ActionResult is the body of {data: ...} for ship action endpoints. Any
// field may be missing depending on the endpoint.
type ActionResult struct {
	Agent       *Agent       `json:"agent,omitempty"`
	Ship        *Ship        `json:"ship,omitempty"`
	Nav         *ShipNav     `json:"nav,omitempty"`
	Fuel        *Fuel        `json:"fuel,omitempty"`
	Cargo       *Cargo       `json:"cargo,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Cooldown    *Cooldown    `json:"cooldown,omitempty"`
	Surveys     []Survey     `json:"surveys,omitempty"`
	Route       []string     `json:"route,omitempty"`
	Message     string       `json:"message,omitempty"`
}

type AutomationFeature struct {
	Name     string            `json:"name"`
	Enabled  bool              `json:"enabled"`
	Settings map[string]string `json:"settings,omitempty"`
	LastRun  *time.Time        `json:"lastRun,omitempty"`
}

type AutomationStatus struct {
	Running  bool                `json:"running"`
	Features []AutomationFeature `json:"features"`
}

type RouteOptimization struct {
	ShipSymbol    string   `json:"shipSymbol"`
	Route         []string `json:"route"`
	TotalDistance float64  `json:"totalDistance"`
	FuelRequired  int      `json:"fuelRequired"`
}

// AgentRecord is one credit history point written by the collector.
type AgentRecord struct {
	Timestamp time.Time
	ShipCount int
	Credits   int64
}
