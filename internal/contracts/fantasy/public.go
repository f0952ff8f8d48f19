package fantasy

import (
	"github.com/roach88/simnet/internal/clarity"
	"github.com/roach88/simnet/internal/simnet"
)

var okTrue = clarity.Ok(clarity.Bool(true))

func joinLeague(c *simnet.Context, _ []clarity.Value) (clarity.Value, error) {
	active, err := boolVar(c, varSeasonActive)
	if err != nil {
		return nil, err
	}
	if !active {
		return c.Err(errSeasonEnded)
	}
	already, err := joined(c, c.Sender)
	if err != nil {
		return nil, err
	}
	if already {
		return c.Err(errAlreadyJoined)
	}
	members, err := participants(c)
	if err != nil {
		return nil, err
	}
	maxParticipants, err := c.UIntConstant(constMaxParticipants)
	if err != nil {
		return nil, err
	}
	if clarity.NewUInt(uint64(len(members))).Cmp(maxParticipants) >= 0 {
		return c.Err(errLeagueFull)
	}

	fee, err := c.UIntConstant(constEntryFee)
	if err != nil {
		return nil, err
	}
	if c.Amount.Cmp(fee) < 0 {
		return c.Err(errInsufficientBalance)
	}
	balance, err := c.StxBalance(c.Sender)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(fee) < 0 {
		return c.Err(errInsufficientBalance)
	}
	paid, err := c.StxTransfer(fee, c.Sender, c.ContractPrincipal)
	if err != nil {
		return nil, err
	}
	if !paid.Ok {
		return c.Err(errInsufficientBalance)
	}

	pool, err := uintVar(c, varPrizePool)
	if err != nil {
		return nil, err
	}
	if pool, err = pool.Add(fee); err != nil {
		return nil, simnet.Abort("prize pool: %v", err)
	}
	if err := c.VarSet(varPrizePool, pool); err != nil {
		return nil, err
	}
	inserted, err := c.MapInsert(mapEntries, c.Sender, clarity.Bool(true))
	if err != nil {
		return nil, err
	}
	if !inserted {
		return c.Err(errAlreadyJoined)
	}
	if err := c.MapSet(mapTeams, c.Sender, clarity.List{}); err != nil {
		return nil, err
	}
	if err := c.VarSet(varParticipants, append(members, c.Sender)); err != nil {
		return nil, err
	}
	c.Print(clarity.Tuple{
		"event":      clarity.StringASCII("join-league"),
		"user":       c.Sender,
		"prize-pool": pool,
	})
	return okTrue, nil
}

func draftPlayer(c *simnet.Context, args []clarity.Value) (clarity.Value, error) {
	player := args[0].(clarity.UInt)

	member, err := joined(c, c.Sender)
	if err != nil {
		return nil, err
	}
	if !member {
		return c.Err(errNotJoined)
	}
	active, err := boolVar(c, varSeasonActive)
	if err != nil {
		return nil, err
	}
	if !active {
		return c.Err(errSeasonEnded)
	}
	if player.IsZero() {
		return c.Err(errInvalidPlayer)
	}

	roster, err := team(c, c.Sender)
	if err != nil {
		return nil, err
	}
	if roster.Contains(player) {
		return c.Err(errAlreadyDrafted)
	}
	maxTeam, err := c.UIntConstant(constMaxTeamSize)
	if err != nil {
		return nil, err
	}
	if clarity.NewUInt(uint64(len(roster))).Cmp(maxTeam) >= 0 {
		return c.Err(errTeamFull)
	}

	roster = append(roster, player)
	if err := c.MapSet(mapTeams, c.Sender, roster); err != nil {
		return nil, err
	}
	return okTrue, nil
}

func updatePlayerScore(c *simnet.Context, args []clarity.Value) (clarity.Value, error) {
	player, score := args[0].(clarity.UInt), args[1].(clarity.UInt)
	if !isOwner(c) {
		return c.Err(errNotAuthorized)
	}
	if player.IsZero() {
		return c.Err(errInvalidPlayer)
	}
	if err := c.MapSet(mapPlayerScores, player, score); err != nil {
		return nil, err
	}
	return okTrue, nil
}

// rosterPoints sums the scores of a user's drafted players.
func rosterPoints(c *simnet.Context, user clarity.Value) (clarity.UInt, error) {
	roster, err := team(c, user)
	if err != nil {
		return clarity.UInt{}, err
	}
	total := clarity.NewUInt(0)
	for _, p := range roster {
		score, err := uintEntry(c, mapPlayerScores, p)
		if err != nil {
			return clarity.UInt{}, err
		}
		if total, err = total.Add(score); err != nil {
			return clarity.UInt{}, simnet.Abort("team points of %s: %v", user, err)
		}
	}
	return total, nil
}

func calculateTeamPoints(c *simnet.Context, args []clarity.Value) (clarity.Value, error) {
	user := args[0].(clarity.Principal)
	member, err := joined(c, user)
	if err != nil {
		return nil, err
	}
	if !member {
		return c.Err(errNotJoined)
	}
	total, err := rosterPoints(c, user)
	if err != nil {
		return nil, err
	}
	if err := c.MapSet(mapTeamPoints, user, total); err != nil {
		return nil, err
	}
	return clarity.Ok(total), nil
}

func setSeasonStatus(c *simnet.Context, args []clarity.Value) (clarity.Value, error) {
	active := args[0].(clarity.Bool)
	if !isOwner(c) {
		return c.Err(errNotAuthorized)
	}
	if err := c.VarSet(varSeasonActive, active); err != nil {
		return nil, err
	}
	return clarity.Ok(active), nil
}

// distributeRewards pays the whole pool to the top-scoring participant.
// Points are recomputed from rosters so a stale team-points entry cannot
// change the outcome.
func distributeRewards(c *simnet.Context, _ []clarity.Value) (clarity.Value, error) {
	if !isOwner(c) {
		return c.Err(errNotAuthorized)
	}
	active, err := boolVar(c, varSeasonActive)
	if err != nil {
		return nil, err
	}
	if active {
		return c.Err(errSeasonActive)
	}
	done, err := boolVar(c, varRewardsDistributed)
	if err != nil {
		return nil, err
	}
	if done {
		return c.Err(errAlreadyDistributed)
	}

	members, err := participants(c)
	if err != nil {
		return nil, err
	}
	pool, err := uintVar(c, varPrizePool)
	if err != nil {
		return nil, err
	}

	paid := clarity.NewUInt(0)
	if len(members) > 0 {
		var (
			winner clarity.Principal
			best   clarity.UInt
		)
		for i, m := range members {
			total, err := rosterPoints(c, m)
			if err != nil {
				return nil, err
			}
			if err := c.MapSet(mapTeamPoints, m, total); err != nil {
				return nil, err
			}
			if i == 0 || total.Cmp(best) > 0 {
				winner, best = m.(clarity.Principal), total
			}
		}
		if !pool.IsZero() {
			resp, err := c.StxTransfer(pool, c.ContractPrincipal, winner)
			if err != nil {
				return nil, err
			}
			if !resp.Ok {
				return nil, simnet.Abort("prize transfer to %s failed with %s", winner.ID(), resp)
			}
			paid = pool
		}
		if err := c.VarSet(varWinner, clarity.Some(winner)); err != nil {
			return nil, err
		}
		c.Print(clarity.Tuple{
			"event":  clarity.StringASCII("distribute-rewards"),
			"winner": winner,
			"amount": paid,
			"points": best,
		})
	}

	if err := c.VarSet(varPrizePool, clarity.NewUInt(0)); err != nil {
		return nil, err
	}
	if err := c.VarSet(varRewardsDistributed, clarity.Bool(true)); err != nil {
		return nil, err
	}
	return clarity.Ok(paid), nil
}
