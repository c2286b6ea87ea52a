package coincore

// Default account labels. The trading and interest wallets are singletons
// per asset and carry fixed labels; non-custodial labels come from the
// wallet payload itself.
const (
	TradingAccountLabel  = "Trading Account"
	InterestAccountLabel = "Rewards Account"
	ExchangeAccountLabel = "Exchange Account"
	AllWalletsLabel      = "All Wallets"
)

// groupLabel names the per-asset aggregate view.
func groupLabel(ticker string) string {
	return ticker + " Accounts"
}
