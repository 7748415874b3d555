package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/services/events"
	"github.com/nightowlcasino/redblack/services/notif"
	"github.com/shopspring/decimal"
)

var (
	ErrBetPending          = bahamut.ErrBetPending
	ErrInsufficientBalance = bahamut.ErrInsufficientBalance
	ErrSignerMismatch      = bahamut.ErrSignerMismatch
	ErrInvalidWallet       = bahamut.ErrInvalidAddress
	ErrInvalidToken        = bahamut.ErrInvalidToken

	ErrInvalidAmount = errors.New("bet amount must be one of 0.1, 0.5, 1, 5, 10 or 25")
	ErrInvalidColor  = errors.New("bet color must be red or black")
)

// Contract is what the game needs from the roulette contract. Amounts are
// token units.
type Contract interface {
	PlaceBet(ctx context.Context, player string, betOnRed bool, amount decimal.Decimal, token bahamut.Token) (bahamut.BetReceipt, error)
	PendingBet(ctx context.Context, player string) (bahamut.PendingBetInfo, error)
	PendingWithdrawals(ctx context.Context, player string) (bahamut.PendingWithdrawalInfo, error)
	Withdraw(ctx context.Context, player string) (string, error)
	Balances(ctx context.Context, player string) (bahamut.Balances, error)
	LatestResult(ctx context.Context, player string) (*bahamut.BetResult, error)
	ResetPendingBet(ctx context.Context, player string) (bool, error)
	History(ctx context.Context, player string) ([]bahamut.Transaction, error)
}

type Notifier interface {
	Notify(ctx context.Context, n notif.Notif) error
}

type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// TxLinker resolves explorer links and statuses for transactions.
type TxLinker interface {
	TxURL(hash string) string
	TxStatus(ctx context.Context, hash string) (bahamut.TxStatus, error)
}

// BetAmounts are the stakes a player can choose, in game units.
var BetAmounts = []decimal.Decimal{
	decimal.RequireFromString("0.1"),
	decimal.RequireFromString("0.5"),
	decimal.NewFromInt(1),
	decimal.NewFromInt(5),
	decimal.NewFromInt(10),
	decimal.NewFromInt(25),
}

// Bet is a player's choice, Amount in game units.
type Bet struct {
	Amount decimal.Decimal `json:"amount"`
	Token  bahamut.Token   `json:"token"`
	Color  bahamut.Color   `json:"color"`
}

func (b Bet) Validate() error {
	valid := false
	for _, a := range BetAmounts {
		if a.Equal(b.Amount) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w - got %s", ErrInvalidAmount, b.Amount)
	}

	if b.Token != bahamut.FTN && b.Token != bahamut.LBR {
		return fmt.Errorf("%w - got '%s'", ErrInvalidToken, b.Token)
	}

	if b.Color != bahamut.Red && b.Color != bahamut.Black {
		return fmt.Errorf("%w - got '%s'", ErrInvalidColor, b.Color)
	}

	return nil
}

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWin     Outcome = "win"
	OutcomeLoss    Outcome = "loss"
)

// Result is what the player is shown after a spin. Amounts are game units.
type Result struct {
	Wallet      string           `json:"wallet"`
	Outcome     Outcome          `json:"result"`
	Color       bahamut.Color    `json:"color"`
	BetColor    bahamut.Color    `json:"betColor"`
	Token       bahamut.Token    `json:"token"`
	Amount      decimal.Decimal  `json:"amount"`
	Payout      decimal.Decimal  `json:"payout"`
	Rotation    float64          `json:"rotation"`
	Message     string           `json:"message"`
	TxHash      string           `json:"txHash,omitempty"`
	ExplorerURL string           `json:"explorerUrl,omitempty"`
	Balances    bahamut.Balances `json:"balances"`
	At          time.Time        `json:"timestamp"`
}

// Claim reports winnings withdrawn on the player's behalf.
type Claim struct {
	HasResolved bool             `json:"hasResolved"`
	Result      Outcome          `json:"result,omitempty"`
	FTNDelta    decimal.Decimal  `json:"ftnDelta"`
	LBRDelta    decimal.Decimal  `json:"lbrDelta"`
	TxHash      string           `json:"txHash,omitempty"`
	Balances    bahamut.Balances `json:"balances"`
}

type TxInfo struct {
	TxHash      string           `json:"txHash"`
	Status      bahamut.TxStatus `json:"status"`
	ExplorerURL string           `json:"explorerUrl"`
}

const pendingMessage = "Your bet has been placed. Waiting for the result..."

func resultMessage(outcome Outcome, amount decimal.Decimal, token bahamut.Token) string {
	switch outcome {
	case OutcomeWin:
		return fmt.Sprintf("You won %s %s!", amount.String(), token)
	case OutcomeLoss:
		return fmt.Sprintf("You lost %s %s.", amount.String(), token)
	default:
		return pendingMessage
	}
}
