package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# VN Stock Advisor Configuration

[market]
# Data source: "TCBS" or "VCI"
source = "TCBS"
# History window (calendar days) used for the assistant briefing
days = 365
# Bar interval: 1D, 1W, 1M
interval = "1D"
# Upstream request timeout
timeout = "15s"
tcbs_base_url = "https://apipubaws.tcbs.com.vn"
vci_base_url = "https://trading.vietcap.com.vn"
# Consecutive upstream failures before a source is paused, and for how long
breaker_failures = 5
breaker_cooldown = "30s"

[assistant]
# Upper bound on one assistant call
timeout = "60s"
# Optional OpenAI-compatible endpoint
base_url = ""

[knowledge]
# Directory holding general.txt, chimcut_method.txt, chimcut_example.txt
dir = "knowledge"

[scan]
symbols = ["VNM", "VCB", "FPT", "HPG", "VHM", "VIC", "MWG", "VRE", "GAS", "MSN"]
days = 365

[server]
addr = ":8080"
allowed_origins = ["http://localhost:3000"]

[log]
# debug, info, warn, error
level = "info"
file = true
console = true
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
