package catalogue

// Category marks which custody products exist for an asset.
type Category int

const (
	CategoryNonCustodial Category = 1 << iota
	CategoryCustodial
)

// Asset is immutable metadata describing one crypto asset. Created once at
// catalogue-load time and never mutated afterwards.
type Asset struct {
	Ticker           string
	Name             string
	Precision        int
	MinConfirmations int
	// ParentChain is the ticker of the L1 chain for token assets, empty for
	// native assets.
	ParentChain string
	Categories  Category
}

func (a Asset) IsCustodial() bool    { return a.Categories&CategoryCustodial != 0 }
func (a Asset) IsNonCustodial() bool { return a.Categories&CategoryNonCustodial != 0 }
func (a Asset) IsToken() bool        { return a.ParentChain != "" }
