package domain

import (
	"fmt"
	"strings"
)

// SymbolInfo is the exchange's description of a market, as returned by the
// symbol metadata endpoint.
type SymbolInfo struct {
	Symbol     string `json:"symbol"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
	Status     string `json:"status"`
}

func (si *SymbolInfo) Validate() error {
	if si.BaseAsset == "" || si.QuoteAsset == "" {
		return fmt.Errorf("base and quote must not be empty")
	}
	if strings.EqualFold(si.BaseAsset, si.QuoteAsset) {
		return fmt.Errorf("base and quote must be different")
	}
	return nil
}

func (si *SymbolInfo) IsTrading() bool {
	return si.Status == "TRADING"
}

func (si *SymbolInfo) String() string {
	return fmt.Sprintf("%s (%s/%s, %s)", si.Symbol, si.BaseAsset, si.QuoteAsset, si.Status)
}
