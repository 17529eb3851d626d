package asset

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalogFile models the structure of configs/assets.yaml.
type catalogFile struct {
	Assets map[string]assetDefinition `yaml:"assets"`
}

// assetDefinition overrides the ledger details of one enumerated asset.
// Decimals may be stated for documentation but must match the enumeration.
type assetDefinition struct {
	Contract  string `yaml:"contract"`
	Namespace string `yaml:"namespace"`
	Decimals  *int32 `yaml:"decimals"`
}

// LoadCatalog reads contract overrides from a YAML file on top of the
// defaults. An empty path yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if strings.TrimSpace(path) == "" {
		return catalog, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取资产配置失败: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("解析资产配置失败: %w", err)
	}

	for name, def := range file.Assets {
		sym, err := ParseSymbol(name)
		if err != nil {
			return nil, fmt.Errorf("资产配置包含未知资产 %s", name)
		}
		current := catalog.assets[sym]
		if def.Decimals != nil && *def.Decimals != current.Decimals {
			return nil, fmt.Errorf("资产 %s 的精度固定为 %d，配置为 %d", sym, current.Decimals, *def.Decimals)
		}
		if contract := strings.TrimSpace(def.Contract); contract != "" {
			current.Contract = contract
		}
		if ns := strings.TrimSpace(def.Namespace); ns != "" {
			current.Namespace = ns
		}
		catalog.assets[sym] = current
	}
	return catalog, nil
}
