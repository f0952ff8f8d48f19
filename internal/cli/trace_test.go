package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// leagueActivity deploys the league, joins user1 and repeats the join so the
// log holds a deployment, a success and a failure.
func leagueActivity(t *testing.T) string {
	t.Helper()
	db := tempDB(t)
	deployLeague(t, db)
	_, err := execute(t, "--db", db, "call", "fantasy-sports", "join-league", "--sender", "user1", "--amount", "100000000")
	require.NoError(t, err)
	_, err = execute(t, "--db", db, "call", "fantasy-sports", "join-league", "--sender", "user1", "--amount", "100000000")
	require.Error(t, err)
	return db
}

func TestTraceCommand_JSON(t *testing.T) {
	db := leagueActivity(t)

	out, err := execute(t, "--db", db, "--format", "json", "trace")
	require.NoError(t, err)

	var result TraceResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, uint64(3), result.Height)
	assert.Equal(t, TraceStats{Total: 3, Deploys: 1, Calls: 2, Succeeded: 2, Failed: 1}, result.Stats)
	require.Len(t, result.Transactions, 3)

	deploy, join, rejoin := result.Transactions[0], result.Transactions[1], result.Transactions[2]
	assert.Equal(t, "deploy", deploy.Kind)
	assert.Equal(t, uint64(1), deploy.Height)
	assert.True(t, deploy.Success)

	assert.Equal(t, "call", join.Kind)
	assert.Equal(t, "join-league", join.Function)
	assert.Equal(t, "100000000", join.Amount)
	assert.Equal(t, "(ok true)", join.Result)
	assert.Equal(t, uint64(0), join.Nonce)

	assert.False(t, rejoin.Success)
	assert.Equal(t, "(err u102)", rejoin.Result)
	assert.Equal(t, "ERR-ALREADY-JOINED (err u102)", rejoin.Error)
	assert.Equal(t, uint64(1), rejoin.Nonce)
	assert.Equal(t, join.Sender, rejoin.Sender)
	assert.Equal(t, deploy.Contract, rejoin.Contract)
}

func TestTraceCommand_Limit(t *testing.T) {
	db := leagueActivity(t)

	out, err := execute(t, "--db", db, "--format", "json", "trace", "--limit", "2")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, uint64(2), result.Transactions[0].Height)
	assert.Equal(t, uint64(3), result.Transactions[1].Height)

	_, err = execute(t, "--db", db, "trace", "--limit=-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceCommand_ContractFilter(t *testing.T) {
	db := leagueActivity(t)
	_, err := execute(t, "--db", db, "deploy", "other-league", fantasyManifest)
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "--format", "json", "trace", "--contract", "other-league")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "deploy", result.Transactions[0].Kind)
	assert.Equal(t, uint64(4), result.Transactions[0].Height)
}

func TestTraceCommand_Text(t *testing.T) {
	db := leagueActivity(t)

	out, err := execute(t, "--db", db, "trace")
	require.NoError(t, err)
	assert.Contains(t, out, "Chain height: 3")
	assert.Contains(t, out, "=== Transactions ===")
	assert.Contains(t, out, "-> ok")
	assert.Contains(t, out, ".fantasy-sports.join-league -> (ok true)")
	assert.Contains(t, out, ".fantasy-sports.join-league -> ERR-ALREADY-JOINED (err u102)")
	assert.Contains(t, out, "  Failed:    1")
	assert.NotContains(t, out, "Sender:")
}

func TestTraceCommand_Empty(t *testing.T) {
	out, err := execute(t, "--db", tempDB(t), "trace")
	require.NoError(t, err)
	assert.Contains(t, out, "(no transactions)")
	assert.Contains(t, out, "  Total:     0")
}

func TestFormatTraceEntry_Verbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatTraceEntry(buf, TraceEntry{
		TxID:     "0123456789abcdef0123456789abcdef",
		Kind:     "call",
		Height:   7,
		Sender:   "ST1SENDER",
		Nonce:    2,
		Contract: "ST1DEPLOYER.league",
		Function: "draft-player",
		Args:     []string{"u3"},
		Amount:   "0",
		Success:  true,
		Result:   "(ok true)",
		Events:   []string{"u3"},
	}, true)

	assert.Equal(t, "  [7] CALL ST1DEPLOYER.league.draft-player u3 -> (ok true)\n"+
		"       Tx: 01234567...89abcdef\n"+
		"       Sender: ST1SENDER (nonce 2)\n"+
		"       Event: u3\n", buf.String())
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "0123456789abcdef", truncateID("0123456789abcdef"))
	assert.Equal(t, "01234567...89abcdef", truncateID("0123456789abcdef0"+"123456789abcdef"))
}
