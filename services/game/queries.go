package game

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nightowlcasino/redblack/bahamut"
	"github.com/nightowlcasino/redblack/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Balances returns wallet balances in token units.
func (s *Service) Balances(ctx context.Context, wallet string) (bahamut.Balances, error) {
	zero := bahamut.Balances{FTN: decimal.Zero, LBR: decimal.Zero}

	wallet, err := normalize(wallet)
	if err != nil {
		return zero, err
	}

	b, err := s.contract.Balances(ctx, wallet)
	if err != nil {
		s.log.Error("failed to get balances", zap.Error(err), zap.String("wallet_addr", wallet))
		return zero, fmt.Errorf("failed to get balances - %w", err)
	}
	return b, nil
}

// PendingBet reports the wallet's pending bet in game units.
func (s *Service) PendingBet(ctx context.Context, wallet string) (bahamut.PendingBetInfo, error) {
	info := bahamut.PendingBetInfo{PendingFTN: decimal.Zero, PendingLBR: decimal.Zero}

	wallet, err := normalize(wallet)
	if err != nil {
		return info, err
	}

	chain, err := s.contract.PendingBet(ctx, wallet)
	if err != nil {
		s.log.Error("failed to get pending bet", zap.Error(err), zap.String("wallet_addr", wallet))
		return info, fmt.Errorf("failed to check pending bet - %w", err)
	}

	info.IsPending = chain.IsPending
	info.BetOnRed = chain.BetOnRed
	info.PendingFTN = s.units(chain.PendingFTN)
	info.PendingLBR = s.units(chain.PendingLBR)

	local, ok := s.state.GetPending(wallet)
	if ok && chain.IsPending {
		betOnRed := local.Color == bahamut.Red
		info.BetOnRed = &betOnRed
		if local.Token == bahamut.LBR {
			info.PendingLBR = local.Amount
		} else {
			info.PendingFTN = local.Amount
		}
	}
	// waiting on chain for a bet this service never placed
	info.IsInconsistentState = chain.IsPending && !ok

	return info, nil
}

// PendingWithdrawals reports waiting winnings in game units.
func (s *Service) PendingWithdrawals(ctx context.Context, wallet string) (bahamut.PendingWithdrawalInfo, error) {
	info := bahamut.PendingWithdrawalInfo{FTN: decimal.Zero, LBR: decimal.Zero}

	wallet, err := normalize(wallet)
	if err != nil {
		return info, err
	}

	wd, err := s.contract.PendingWithdrawals(ctx, wallet)
	if err != nil {
		s.log.Error("failed to get pending withdrawals", zap.Error(err), zap.String("wallet_addr", wallet))
		return info, fmt.Errorf("failed to get pending withdrawals - %w", err)
	}

	info.HasPendingWithdrawal = wd.HasPendingWithdrawal
	info.FTN = s.units(wd.FTN)
	info.LBR = s.units(wd.LBR)
	return info, nil
}

func historyKey(tx bahamut.Transaction) string {
	return tx.TxHash + "|" + string(tx.Type) + "|" + string(tx.Token)
}

// History merges contract history with locally recorded entries, newest
// first. limit <= 0 uses the configured default.
func (s *Service) History(ctx context.Context, wallet string, limit int) ([]bahamut.Transaction, error) {
	wallet, err := normalize(wallet)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}

	var merged []bahamut.Transaction
	seen := make(map[string]bool)

	local, err := s.state.History(ctx, wallet)
	if err != nil {
		s.log.Warn("failed to get local history", zap.Error(err), zap.String("wallet_addr", wallet))
	}
	for _, tx := range local {
		key := historyKey(tx)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, tx)
	}

	start := time.Now()
	remote, err := s.contract.History(ctx, wallet)
	metrics.ObserveCall("history", start)
	if err != nil {
		s.log.Warn("failed to get contract history", zap.Error(err), zap.String("wallet_addr", wallet))
	}
	for _, tx := range remote {
		// contract amounts are token units
		tx.Amount = s.units(tx.Amount)
		tx.ExplorerURL = s.txURL(tx.TxHash)
		key := historyKey(tx)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, tx)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	if merged == nil {
		merged = []bahamut.Transaction{}
	}

	return merged, nil
}

// LastResult returns the most recent result presented for wallet.
func (s *Service) LastResult(wallet string) (Result, bool) {
	wallet, err := normalize(wallet)
	if err != nil {
		return Result{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.lastResults[wallet]
	return res, ok
}

// TxStatus looks up a transaction on the explorer.
func (s *Service) TxStatus(ctx context.Context, hash string) (TxInfo, error) {
	info := TxInfo{TxHash: hash, Status: bahamut.TxPending}
	if s.links == nil {
		return info, nil
	}

	info.ExplorerURL = s.links.TxURL(hash)
	status, err := s.links.TxStatus(ctx, hash)
	if err != nil {
		s.log.Warn("failed to get tx status", zap.Error(err), zap.String("tx_hash", hash))
		return info, fmt.Errorf("failed to get tx status - %w", err)
	}
	info.Status = status
	return info, nil
}
