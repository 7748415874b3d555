package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nightowlcasino/redblack/config"
	"github.com/nightowlcasino/redblack/services/game"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "0x00000000000000000000000000000000000000aa"

func mockConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("LOG_PATH", t.TempDir()+"/")
	viper.Set("backend", config.BackendMock)
	viper.Set("redis.addr", "")
	viper.Set("mock.resolve_after", time.Duration(0))
	viper.Set("roulette.poll_interval", 10*time.Millisecond)
	viper.Set("roulette.poll_timeout", 5*time.Second)
}

func TestRootCommands(t *testing.T) {
	root := RedBlack()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"api-svc", "bet", "withdraw", "status", "history"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestGameConfig(t *testing.T) {
	testCases := []struct {
		name       string
		multiplier string
		err        error
	}{
		{"TestDefault", "0.0001", nil},
		{"TestNotANumber", "abc", config.ErrBadMultiplier},
		{"TestNegative", "-1", config.ErrBadMultiplier},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			viper.Set("roulette.bet_multiplier", tc.multiplier)
			viper.Set("roulette.history_limit", 7)

			cfg, err := gameConfig()
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.multiplier, cfg.Multiplier.String())
			assert.Equal(t, 7, cfg.HistoryLimit)
		})
	}
}

func TestBetCommandMock(t *testing.T) {
	mockConfig(t)

	root := RedBlack()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"bet", "--wallet", testWallet, "--amount", "5", "--token", "lbr", "--color", "black", "--wait"})

	require.NoError(t, root.Execute())

	dec := json.NewDecoder(strings.NewReader(out.String()))
	var placed, final game.Result
	require.NoError(t, dec.Decode(&placed))
	require.NoError(t, dec.Decode(&final))

	assert.Equal(t, game.OutcomePending, placed.Outcome)
	assert.NotEqual(t, game.OutcomePending, final.Outcome)
	assert.Equal(t, "5", final.Amount.String())
}

func TestBetCommandRejectsBadBet(t *testing.T) {
	mockConfig(t)

	root := RedBlack()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"bet", "--wallet", testWallet, "--amount", "2"})

	assert.ErrorIs(t, root.Execute(), game.ErrInvalidAmount)
}

func TestStatusNeedsWallet(t *testing.T) {
	mockConfig(t)

	root := RedBlack()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"status"})

	assert.ErrorIs(t, root.Execute(), config.ErrMissingWalletAddr)
}

func TestHistoryCommandMock(t *testing.T) {
	mockConfig(t)
	viper.Set("wallet.address", testWallet)

	root := RedBlack()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"history"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "[]\n", out.String())
}
