package catalogue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// DynamicAssetSource optionally supplies extra assets discovered at startup,
// e.g. from a remote feature-config endpoint.
type DynamicAssetSource interface {
	DynamicAssets(ctx context.Context) ([]Asset, error)
}

type assetEntry struct {
	Ticker           string `yaml:"ticker"`
	Name             string `yaml:"name"`
	Precision        int    `yaml:"precision"`
	MinConfirmations int    `yaml:"min_confirmations"`
	ParentChain      string `yaml:"parent_chain"`
	Custodial        bool   `yaml:"custodial"`
	NonCustodial     bool   `yaml:"non_custodial"`
}

type assetsFile struct {
	Assets []assetEntry `yaml:"assets"`
}

// Catalogue is the asset registry: a static compiled list merged with an
// optionally fetched dynamic list. Immutable once Init has run.
type Catalogue struct {
	byTicker map[string]Asset
	ordered  []Asset
}

// LoadStaticAssets reads the static asset list from a YAML file.
func LoadStaticAssets(assetsFile string) ([]Asset, error) {
	var assetsPath string
	if filepath.IsAbs(assetsFile) {
		assetsPath = assetsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		assetsPath = filepath.Join(wd, assetsFile)
	}

	data, err := os.ReadFile(assetsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", assetsFile, err)
	}
	return parseAssets(data)
}

func parseAssets(data []byte) ([]Asset, error) {
	var parsed assetsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse assets file: %w", err)
	}

	assets := make([]Asset, 0, len(parsed.Assets))
	for i, e := range parsed.Assets {
		if e.Ticker == "" {
			return nil, fmt.Errorf("asset at index %d missing ticker", i)
		}
		if e.Precision <= 0 {
			return nil, fmt.Errorf("asset %s has invalid precision %d", e.Ticker, e.Precision)
		}
		var cat Category
		if e.Custodial {
			cat |= CategoryCustodial
		}
		if e.NonCustodial {
			cat |= CategoryNonCustodial
		}
		assets = append(assets, Asset{
			Ticker:           strings.ToUpper(e.Ticker),
			Name:             e.Name,
			Precision:        e.Precision,
			MinConfirmations: e.MinConfirmations,
			ParentChain:      strings.ToUpper(e.ParentChain),
			Categories:       cat,
		})
	}
	return assets, nil
}

// New builds a catalogue from the static asset set plus whatever the dynamic
// source reports. A nil source or a dynamic fetch failure leaves the static
// set in effect; dynamic assets never shadow static ones.
func New(ctx context.Context, static []Asset, dynamic DynamicAssetSource) (*Catalogue, error) {
	c := &Catalogue{byTicker: make(map[string]Asset)}

	for _, a := range static {
		c.add(a)
	}

	if dynamic != nil {
		extra, err := dynamic.DynamicAssets(ctx)
		if err != nil {
			zap.L().Warn("Dynamic asset fetch failed, using static set only", zap.Error(err))
		} else {
			for _, a := range extra {
				if _, exists := c.byTicker[strings.ToUpper(a.Ticker)]; !exists {
					c.add(a)
				}
			}
		}
	}

	if len(c.ordered) == 0 {
		return nil, fmt.Errorf("catalogue has no assets")
	}
	return c, nil
}

func (c *Catalogue) add(a Asset) {
	a.Ticker = strings.ToUpper(a.Ticker)
	c.byTicker[a.Ticker] = a
	c.ordered = append(c.ordered, a)
}

// Lookup finds an asset by ticker, case-insensitively. The second return is
// false on a miss; a miss is not an error.
func (c *Catalogue) Lookup(ticker string) (Asset, bool) {
	a, ok := c.byTicker[strings.ToUpper(ticker)]
	return a, ok
}

// SupportedCryptoAssets returns every asset in catalogue order.
func (c *Catalogue) SupportedCryptoAssets() []Asset {
	out := make([]Asset, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// SupportedCustodialAssets returns the assets with a custodial product.
func (c *Catalogue) SupportedCustodialAssets() []Asset {
	var out []Asset
	for _, a := range c.ordered {
		if a.IsCustodial() {
			out = append(out, a)
		}
	}
	return out
}

// SupportedL2Assets returns the token assets whose parent chain is the given
// asset.
func (c *Catalogue) SupportedL2Assets(chain Asset) []Asset {
	var out []Asset
	for _, a := range c.ordered {
		if a.ParentChain == chain.Ticker {
			out = append(out, a)
		}
	}
	return out
}
