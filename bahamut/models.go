package bahamut

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAddress = errors.New("invalid wallet address")
	ErrInvalidToken   = errors.New("token must be FTN or LBR")

	// returned by contract backends
	ErrBetPending          = errors.New("a bet is already pending")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type Token string

const (
	FTN Token = "FTN"
	LBR Token = "LBR"
)

func ParseToken(s string) (Token, error) {
	switch Token(strings.ToUpper(s)) {
	case FTN:
		return FTN, nil
	case LBR:
		return LBR, nil
	default:
		return "", fmt.Errorf("%w - got '%s'", ErrInvalidToken, s)
	}
}

// Color is where the ball stopped, or the color a bet was placed on.
type Color string

const (
	Red   Color = "red"
	Black Color = "black"
	Green Color = "green"
)

// Opposite returns the other betting color. Green has no opposite.
func (c Color) Opposite() Color {
	switch c {
	case Red:
		return Black
	case Black:
		return Red
	default:
		return Green
	}
}

// ResultColor maps the contract's ResultGenerated result byte to a color.
func ResultColor(result uint8) Color {
	switch result {
	case 0:
		return Red
	case 1:
		return Black
	default:
		return Green
	}
}

type TxKind string

const (
	KindBet      TxKind = "bet"
	KindWin      TxKind = "win"
	KindLoss     TxKind = "loss"
	KindWithdraw TxKind = "withdraw"
)

// Balances are wallet balances in token units.
type Balances struct {
	FTN decimal.Decimal `json:"ftnBalance"`
	LBR decimal.Decimal `json:"lbrBalance"`
}

type PendingBetInfo struct {
	IsPending           bool            `json:"isPending"`
	IsInconsistentState bool            `json:"isInconsistentState"`
	PendingFTN          decimal.Decimal `json:"pendingFTN"`
	PendingLBR          decimal.Decimal `json:"pendingLBR"`
	BetOnRed            *bool           `json:"betOnRed,omitempty"`
}

type PendingWithdrawalInfo struct {
	HasPendingWithdrawal bool            `json:"hasPendingWithdrawal"`
	FTN                  decimal.Decimal `json:"ftnAmount"`
	LBR                  decimal.Decimal `json:"lbrAmount"`
}

// Amount returns the pending amount for token.
func (p PendingWithdrawalInfo) Amount(token Token) decimal.Decimal {
	if token == LBR {
		return p.LBR
	}
	return p.FTN
}

type BetReceipt struct {
	TxHash      string          `json:"txHash"`
	Player      string          `json:"player"`
	BetOnRed    bool            `json:"betOnRed"`
	Token       Token           `json:"token"`
	Amount      decimal.Decimal `json:"amount"`
	BlockNumber uint64          `json:"blockNumber"`
}

// BetResult is the oracle outcome of a bet, as reported by ResultGenerated.
type BetResult struct {
	Player       string          `json:"player"`
	Won          bool            `json:"hasWon"`
	ResultNumber uint8           `json:"resultNumber"`
	Color        Color           `json:"resultColor"`
	Token        Token           `json:"token"`
	BetAmount    decimal.Decimal `json:"betAmount"`
	PayoutFTN    decimal.Decimal `json:"payoutFTN"`
	PayoutLBR    decimal.Decimal `json:"payoutLBR"`
	TxHash       string          `json:"txHash"`
	BlockNumber  uint64          `json:"blockNumber"`
}

// Payout returns the payout in the token the bet was placed with.
func (r BetResult) Payout() decimal.Decimal {
	if r.Token == LBR {
		return r.PayoutLBR
	}
	return r.PayoutFTN
}

type Transaction struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        TxKind          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Token       Token           `json:"token"`
	Color       Color           `json:"color,omitempty"`
	ResultColor Color           `json:"resultColor,omitempty"`
	TxHash      string          `json:"txHash"`
	ExplorerURL string          `json:"explorerUrl,omitempty"`
}

// NormalizeAddress validates a hex address and returns its checksummed form.
func NormalizeAddress(addr string) (string, error) {
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%w - '%s'", ErrInvalidAddress, addr)
	}
	return common.HexToAddress(addr).Hex(), nil
}
