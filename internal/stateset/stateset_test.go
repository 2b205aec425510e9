package stateset

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/example/pevm-analyzer/internal/rpcclient"
)

func strp(s string) *string { return &s }
func u64p(n uint64) *uint64 { return &n }

func TestExtract_BalanceCodeStorage(t *testing.T) {
	addrA := common.HexToAddress("0xaaaa00000000000000000000000000000000000a")
	addrB := common.HexToAddress("0xbbbb00000000000000000000000000000000000b")

	frame := rpcclient.PrestateFrame{
		addrA: {
			Balance: strp("0x1"),
			Code:    strp("0x60"),
			Storage: map[string]string{"0xSLOT1": "0x1"},
		},
		addrB: {
			Nonce: u64p(3), // nonce-only change; must not register anywhere
		},
	}

	set := Extract(frame)

	assert.Contains(t, set.BalanceSet, "0xaaaa00000000000000000000000000000000000a")
	assert.Contains(t, set.CodeSet, "0xaaaa00000000000000000000000000000000000a")
	assert.Contains(t, set.StorageSet, "0xslot1")

	assert.NotContains(t, set.BalanceSet, "0xbbbb00000000000000000000000000000000000b")
	assert.NotContains(t, set.CodeSet, "0xbbbb00000000000000000000000000000000000b")
	assert.Len(t, set.StorageSet, 1)
}

func TestExtract_EmptyFrame(t *testing.T) {
	set := Extract(rpcclient.PrestateFrame{})
	assert.Empty(t, set.BalanceSet)
	assert.Empty(t, set.CodeSet)
	assert.Empty(t, set.StorageSet)
}
