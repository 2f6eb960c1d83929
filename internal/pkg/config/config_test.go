package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
chain:
  chain_id: 97
  rpc_url: "https://bsc-testnet.example.org"
  explorer_url: "https://testnet.bscscan.com"
contracts:
  factory: "0x43b5445b03E95B334a64AEA8AB5370Fa335D4A6d"
  position_manager: "0x9dc67a500D51d36ACD3b89a2f6c7A91ceaaa33b8"
  oracle: "0x87C67a8Fa7E054E374BD584cDcC27610361906b1"
  lens: "0xB66709165d053DdF7d5FD1f6F2D4Ab471b690847"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chain.ChainID != 97 {
		t.Errorf("chain id = %d, want 97", cfg.Chain.ChainID)
	}
	// Defaults fill unset coordinator values.
	if cfg.Coordinator.DebounceMillis != 800 {
		t.Errorf("debounce = %d, want default 800", cfg.Coordinator.DebounceMillis)
	}
	if cfg.Coordinator.CloseConfirmations != 2 {
		t.Errorf("close confirmations = %d, want default 2", cfg.Coordinator.CloseConfirmations)
	}
}

func TestLoadRejectsBadAddress(t *testing.T) {
	bad := strings.Replace(validYAML,
		"0x43b5445b03E95B334a64AEA8AB5370Fa335D4A6d", "not-an-address", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected error for invalid factory address")
	}
}

func TestLoadRejectsMissingContract(t *testing.T) {
	bad := strings.Replace(validYAML,
		"  lens: \"0xB66709165d053DdF7d5FD1f6F2D4Ab471b690847\"\n", "", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatal("expected error for missing lens address")
	}
}

func TestTxURL(t *testing.T) {
	c := ChainConfig{ExplorerURL: "https://testnet.bscscan.com"}
	got := c.TxURL("0xabc")
	want := "https://testnet.bscscan.com/tx/0xabc"
	if got != want {
		t.Errorf("TxURL = %q, want %q", got, want)
	}
}
