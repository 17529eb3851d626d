package asset

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	xerrors "intents-agent/internal/errors"
)

// Symbol 是受支持资产的封闭枚举。
type Symbol string

const (
	USDC Symbol = "usdc"
	NEAR Symbol = "near"
	BTC  Symbol = "btc"
)

// NamespaceNEP141 标识 NEAR 上的同质化代币标准。
const NamespaceNEP141 = "nep141"

const CodeInvalidAsset xerrors.Code = "INVALID_ASSET"

func init() {
	xerrors.Register(CodeInvalidAsset, xerrors.Attributes{
		Message:    "unsupported token",
		Severity:   xerrors.SeverityInfo,
		HTTPStatus: http.StatusBadRequest,
	})
}

// Asset 描述一个链上资产：合约标识与固定精度。
type Asset struct {
	Symbol    Symbol `json:"symbol"`
	Contract  string `json:"contract"`
	Decimals  int32  `json:"decimals"`
	Namespace string `json:"namespace"`
}

// Identifier 返回 solver relay 使用的 "<namespace>:<contract>" 资产标识。
func (a Asset) Identifier() string {
	return a.Namespace + ":" + a.Contract
}

// decimalsOf 记录每个枚举值的精度，运行期间不可修改。
var decimalsOf = map[Symbol]int32{
	USDC: 6,
	NEAR: 24,
	BTC:  8,
}

// Symbols 返回所有受支持的资产符号，按字母序排列。
func Symbols() []Symbol {
	out := make([]Symbol, 0, len(decimalsOf))
	for s := range decimalsOf {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseSymbol 将外部输入的 token 选择器解析为枚举值。
func ParseSymbol(selector string) (Symbol, error) {
	s := Symbol(strings.ToLower(strings.TrimSpace(selector)))
	if _, ok := decimalsOf[s]; !ok {
		return "", xerrors.New(CodeInvalidAsset, fmt.Sprintf("unsupported token: %q", strings.TrimSpace(selector)),
			xerrors.WithMetadata("token", selector))
	}
	return s, nil
}

// Catalog 保存每个资产符号对应的合约配置。
type Catalog struct {
	assets map[Symbol]Asset
}

// DefaultCatalog 返回主网默认的资产配置。
func DefaultCatalog() *Catalog {
	return &Catalog{assets: map[Symbol]Asset{
		USDC: {
			Symbol:    USDC,
			Contract:  "17208628f84f5d6ad33f0da3bbbeb27ffcb398eac501a31bd6ad2011e36133a1",
			Decimals:  decimalsOf[USDC],
			Namespace: NamespaceNEP141,
		},
		NEAR: {
			Symbol:    NEAR,
			Contract:  "wrap.near",
			Decimals:  decimalsOf[NEAR],
			Namespace: NamespaceNEP141,
		},
		BTC: {
			Symbol:    BTC,
			Contract:  "btc.omft.near",
			Decimals:  decimalsOf[BTC],
			Namespace: NamespaceNEP141,
		},
	}}
}

// Lookup 根据 token 选择器查找资产，大小写不敏感。
func (c *Catalog) Lookup(selector string) (Asset, error) {
	sym, err := ParseSymbol(selector)
	if err != nil {
		return Asset{}, err
	}
	return c.Get(sym), nil
}

// Get 返回枚举值对应的资产。
func (c *Catalog) Get(sym Symbol) Asset {
	return c.assets[sym]
}

// All 返回目录中的全部资产，按符号排序。
func (c *Catalog) All() []Asset {
	out := make([]Asset, 0, len(c.assets))
	for _, sym := range Symbols() {
		out = append(out, c.assets[sym])
	}
	return out
}
