package bahamut

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
)

// LBRToken is the ERC20 token accepted as the alternate betting currency.
type LBRToken struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewLBRToken(client *Client, address string) (*LBRToken, error) {
	parsed, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("error parsing LBR abi - %w", err)
	}

	addr := common.HexToAddress(address)
	eth := client.Eth()

	return &LBRToken{
		address:  addr,
		contract: bind.NewBoundContract(addr, parsed, eth, eth, eth),
	}, nil
}

func (l *LBRToken) BalanceOf(ctx context.Context, owner string) (decimal.Decimal, error) {
	var out []interface{}
	err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return decimal.Zero, fmt.Errorf("error calling LBR balanceOf - %w", err)
	}
	return FromWei(out[0].(*big.Int)), nil
}

func (l *LBRToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	err := l.contract.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("error calling LBR allowance - %w", err)
	}
	return out[0].(*big.Int), nil
}

func (l *LBRToken) Approve(opts *bind.TransactOpts, spender common.Address, wei *big.Int) (*types.Transaction, error) {
	tx, err := l.contract.Transact(opts, "approve", spender, wei)
	if err != nil {
		return nil, fmt.Errorf("error sending LBR approve - %w", err)
	}
	return tx, nil
}
