// Package fantasy implements the fantasy-sports league contract.
//
// Players join by attaching the entry fee, which goes into the prize pool
// held by the contract. Each player drafts up to max-team-size players; the
// league owner (the deployer) records player scores, ends the season and
// distributes the pool to the participant whose roster scored the most.
// Ties go to whoever joined first.
package fantasy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/manifest"
	"github.com/roach88/simnet/internal/simnet"
)

// ID is the implementation id manifests bind to.
const ID = "fantasy-sports@v1"

// Error names.
const (
	errNotAuthorized       = "ERR-NOT-AUTHORIZED"
	errInsufficientBalance = "ERR-INSUFFICIENT-BALANCE"
	errAlreadyJoined       = "ERR-ALREADY-JOINED"
	errNotJoined           = "ERR-NOT-JOINED"
	errTeamFull            = "ERR-TEAM-FULL"
	errAlreadyDrafted      = "ERR-ALREADY-DRAFTED"
	errSeasonEnded         = "ERR-SEASON-ENDED"
	errSeasonActive        = "ERR-SEASON-ACTIVE"
	errAlreadyDistributed  = "ERR-ALREADY-DISTRIBUTED"
	errLeagueFull          = "ERR-LEAGUE-FULL"
	errInvalidPlayer       = "ERR-INVALID-PLAYER"
)

// Storage names.
const (
	varPrizePool          = "prize-pool"
	varSeasonActive       = "season-active"
	varParticipants       = "participants"
	varRewardsDistributed = "rewards-distributed"
	varWinner             = "winner"

	mapEntries      = "entries"
	mapTeams        = "teams"
	mapPlayerScores = "player-scores"
	mapTeamPoints   = "team-points"

	constEntryFee        = "entry-fee"
	constMaxTeamSize     = "max-team-size"
	constMaxParticipants = "max-participants"
)

type handler func(c *simnet.Context, args []clarity.Value) (clarity.Value, error)

var handlers = map[string]struct {
	access manifest.Access
	fn     handler
}{
	"join-league":           {manifest.AccessPublic, joinLeague},
	"draft-player":          {manifest.AccessPublic, draftPlayer},
	"update-player-score":   {manifest.AccessPublic, updatePlayerScore},
	"calculate-team-points": {manifest.AccessPublic, calculateTeamPoints},
	"set-season-status":     {manifest.AccessPublic, setSeasonStatus},
	"distribute-rewards":    {manifest.AccessPublic, distributeRewards},

	"get-user-entry-status": {manifest.AccessReadOnly, getUserEntryStatus},
	"get-team":              {manifest.AccessReadOnly, getTeam},
	"get-player-score":      {manifest.AccessReadOnly, getPlayerScore},
	"get-team-points":       {manifest.AccessReadOnly, getTeamPoints},
	"get-prize-pool":        {manifest.AccessReadOnly, varGetter(varPrizePool)},
	"get-season-status":     {manifest.AccessReadOnly, varGetter(varSeasonActive)},
	"get-participants":      {manifest.AccessReadOnly, varGetter(varParticipants)},
	"get-winner":            {manifest.AccessReadOnly, varGetter(varWinner)},
	"get-entry-fee":         {manifest.AccessReadOnly, getEntryFee},
}

type league struct{}

// New binds the league to a manifest, checking that the manifest declares
// every function, error, data var, map and constant the league uses.
func New(spec *manifest.Contract) (simnet.Contract, error) {
	var missing []string
	for name, h := range handlers {
		fn, ok := spec.Function(name)
		switch {
		case !ok:
			missing = append(missing, "function "+name)
		case fn.Access != h.access:
			missing = append(missing, fmt.Sprintf("function %s as %s", name, h.access))
		}
	}
	for _, name := range []string{
		errNotAuthorized, errInsufficientBalance, errAlreadyJoined, errNotJoined,
		errTeamFull, errAlreadyDrafted, errSeasonEnded, errSeasonActive,
		errAlreadyDistributed, errLeagueFull, errInvalidPlayer,
	} {
		if _, ok := spec.Errors[name]; !ok {
			missing = append(missing, "error "+name)
		}
	}
	for _, name := range []string{varPrizePool, varSeasonActive, varParticipants, varRewardsDistributed, varWinner} {
		if _, ok := spec.DataVars[name]; !ok {
			missing = append(missing, "data var "+name)
		}
	}
	for _, name := range []string{mapEntries, mapTeams, mapPlayerScores, mapTeamPoints} {
		if _, ok := spec.Maps[name]; !ok {
			missing = append(missing, "map "+name)
		}
	}
	for _, name := range []string{constEntryFee, constMaxTeamSize, constMaxParticipants} {
		if _, ok := spec.Constants[name].(clarity.UInt); !ok {
			missing = append(missing, "uint constant "+name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%s: manifest %s does not declare %s", ID, spec.Name, strings.Join(missing, ", "))
	}
	return league{}, nil
}

func (league) Init(c *simnet.Context) error {
	c.Print(clarity.Tuple{
		"event": clarity.StringASCII("league-created"),
		"owner": c.Deployer,
	})
	return nil
}

func (league) Call(c *simnet.Context, fn string, args []clarity.Value) (clarity.Value, error) {
	h, ok := handlers[fn]
	if !ok {
		return nil, simnet.Abort("fantasy-sports has no function %s", fn)
	}
	return h.fn(c, args)
}

func varGetter(name string) handler {
	return func(c *simnet.Context, _ []clarity.Value) (clarity.Value, error) {
		return c.VarGet(name)
	}
}

func uintVar(c *simnet.Context, name string) (clarity.UInt, error) {
	v, err := c.VarGet(name)
	if err != nil {
		return clarity.UInt{}, err
	}
	u, ok := v.(clarity.UInt)
	if !ok {
		return clarity.UInt{}, simnet.Abort("%s holds %s, not a uint", name, v)
	}
	return u, nil
}

func boolVar(c *simnet.Context, name string) (bool, error) {
	v, err := c.VarGet(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(clarity.Bool)
	if !ok {
		return false, simnet.Abort("%s holds %s, not a bool", name, v)
	}
	return bool(b), nil
}

func participants(c *simnet.Context) (clarity.List, error) {
	v, err := c.VarGet(varParticipants)
	if err != nil {
		return nil, err
	}
	l, ok := v.(clarity.List)
	if !ok {
		return nil, simnet.Abort("%s holds %s, not a list", varParticipants, v)
	}
	return l, nil
}

// team returns a roster, empty for players who never drafted.
func team(c *simnet.Context, user clarity.Value) (clarity.List, error) {
	entry, err := c.MapGet(mapTeams, user)
	if err != nil || entry.IsNone() {
		return clarity.List{}, err
	}
	l, ok := entry.Some.(clarity.List)
	if !ok {
		return nil, simnet.Abort("team of %s holds %s", user, entry.Some)
	}
	return l, nil
}

// uintEntry reads a uint map entry, zero when absent.
func uintEntry(c *simnet.Context, mapName string, key clarity.Value) (clarity.UInt, error) {
	entry, err := c.MapGet(mapName, key)
	if err != nil || entry.IsNone() {
		return clarity.NewUInt(0), err
	}
	u, ok := entry.Some.(clarity.UInt)
	if !ok {
		return clarity.UInt{}, simnet.Abort("%s[%s] holds %s", mapName, key, entry.Some)
	}
	return u, nil
}

func joined(c *simnet.Context, user clarity.Value) (bool, error) {
	entry, err := c.MapGet(mapEntries, user)
	if err != nil {
		return false, err
	}
	return !entry.IsNone(), nil
}

func isOwner(c *simnet.Context) bool {
	return c.Sender == c.Deployer
}
