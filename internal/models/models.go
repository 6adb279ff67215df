// package models defines the user record for the radio service
package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/airwaves/internal/shared"
)

// StartingPoints is the balance every new listener receives.
const StartingPoints = 1000

// Roles a user record may carry.
const (
	RoleListener       = "listener"
	RoleStationManager = "station_manager"
	RoleAdmin          = "admin"
)

var roles = []string{RoleListener, RoleStationManager, RoleAdmin}

// Bet is a wager on a station's listener count.
type Bet struct {
	StationID string    `json:"station_id"`
	Amount    int       `json:"amount"`
	PlacedAt  time.Time `json:"placed_at"`
}

// UserProfile is the typed view of a user record.
type UserProfile struct {
	ID               string         `json:"id"`
	Username         string         `json:"username"`
	Role             string         `json:"role"`
	Points           int            `json:"points"`
	Favorites        []string       `json:"favorites"`
	ListeningMinutes int            `json:"listening_minutes"`
	Bets             []Bet          `json:"bets"`
	Holdings         map[string]int `json:"holdings"`
	CreatedAt        time.Time      `json:"created_at"`
}

// DefaultUserRecord builds the record persisted the first time username is read.
func DefaultUserRecord(username string) map[string]any {
	return map[string]any{
		"id":                shared.GenerateID(),
		"username":          username,
		"role":              RoleListener,
		"points":            StartingPoints,
		"favorites":         []string{},
		"listening_minutes": 0,
		"bets":              []Bet{},
		"holdings":          map[string]int{},
		"created_at":        time.Now().UTC().Truncate(time.Second),
	}
}

// ProfileFromRecord decodes record into a [UserProfile]. Missing fields keep their zero value.
func ProfileFromRecord(record map[string]any) (*UserProfile, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var p UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if p.Favorites == nil {
		p.Favorites = []string{}
	}
	if p.Holdings == nil {
		p.Holdings = map[string]int{}
	}
	return &p, nil
}

// Validate checks the profile's role and balances.
func (p *UserProfile) Validate() error {
	if p.Username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	if err := ValidateRole(p.Role); err != nil {
		return err
	}
	if p.Points < 0 {
		return fmt.Errorf("%w: points must not be negative", shared.ErrInvalidInput)
	}
	return nil
}

// IsFavorite reports whether stationID is in the profile's favourites.
func (p *UserProfile) IsFavorite(stationID string) bool {
	return slices.Contains(p.Favorites, stationID)
}

// ValidateRole reports whether role is one of the known roles.
func ValidateRole(role string) error {
	if !slices.Contains(roles, role) {
		return fmt.Errorf("%w: %q", shared.ErrInvalidRole, role)
	}
	return nil
}

// PointsPatch adds delta to the profile's points. The balance never drops below zero.
func PointsPatch(p *UserProfile, delta int) map[string]any {
	return map[string]any{"points": max(p.Points+delta, 0)}
}

// FavoritePatch adds stationID to the favourites, or removes it when remove is set.
func FavoritePatch(p *UserProfile, stationID string, remove bool) map[string]any {
	favorites := slices.DeleteFunc(slices.Clone(p.Favorites), func(s string) bool { return s == stationID })
	if !remove {
		favorites = append(favorites, stationID)
	}
	return map[string]any{"favorites": favorites}
}

// RolePatch sets the user's role after validating it.
func RolePatch(role string) (map[string]any, error) {
	if err := ValidateRole(role); err != nil {
		return nil, err
	}
	return map[string]any{"role": role}, nil
}

// ParsePatch turns field=value arguments into a patch.
//
// Values are decoded as JSON when possible (numbers, booleans, null, arrays, objects) and kept as strings otherwise.
func ParsePatch(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no field=value pairs given", shared.ErrInvalidPatch)
	}

	patch := make(map[string]any, len(args))
	for _, arg := range args {
		field, raw, ok := strings.Cut(arg, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("%w: %q is not field=value", shared.ErrInvalidPatch, arg)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		patch[field] = value
	}
	return patch, nil
}
