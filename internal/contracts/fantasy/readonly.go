package fantasy

import (
	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/simnet"
)

func getUserEntryStatus(c *simnet.Context, args []clarity.Value) (clarity.Value, error) {
	member, err := joined(c, args[0])
	if err != nil {
		return nil, err
	}
	return clarity.Bool(member), nil
}

func getTeam(c *simnet.Context, args []clarity.Value) (clarity.Value, error) {
	return team(c, args[0])
}

func getPlayerScore(c *simnet.Context, args []clarity.Value) (clarity.Value, error) {
	return uintEntry(c, mapPlayerScores, args[0])
}

func getTeamPoints(c *simnet.Context, args []clarity.Value) (clarity.Value, error) {
	return uintEntry(c, mapTeamPoints, args[0])
}

func getEntryFee(c *simnet.Context, _ []clarity.Value) (clarity.Value, error) {
	return c.Constant(constEntryFee)
}
