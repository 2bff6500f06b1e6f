package memkv

import (
	"testing"

	"github.com/orrlabs/prefstore/lib/kv"
	kvtesting "github.com/orrlabs/prefstore/lib/kv/testing"
)

func Test(t *testing.T) {
	kvtesting.RunAreaTests(t, "MemKV", func() kv.Area {
		return New(kv.AreaLocal, kv.QuotaLocalBytes)
	})
}
