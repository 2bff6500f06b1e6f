package sqlitekv

import (
	"testing"

	"github.com/orrlabs/prefstore/lib/kv"
	kvtesting "github.com/orrlabs/prefstore/lib/kv/testing"
)

func Test(t *testing.T) {
	kvtesting.RunAreaTests(t, "SQLiteKV", func() kv.Area {
		area, err := Open(":memory:", kv.AreaLocal, kv.QuotaLocalBytes)
		if err != nil {
			t.Fatalf("failed to open sqlite area: %v", err)
		}
		return area
	})
}

// Both areas sharing one database file must not see each other's keys.
func TestAreaNamespacing(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/store.db"

	local, err := Open(path, kv.AreaLocal, kv.QuotaLocalBytes)
	if err != nil {
		t.Fatalf("open local: %v", err)
	}
	defer local.Close()

	sync, err := Open(path, kv.AreaSync, kv.QuotaSyncBytes)
	if err != nil {
		t.Fatalf("open sync: %v", err)
	}
	defer sync.Close()

	if err := local.Set(map[string][]byte{"shared-key": []byte("local-value")}); err != nil {
		t.Fatalf("set local: %v", err)
	}
	if err := sync.Set(map[string][]byte{"shared-key": []byte("sync-value")}); err != nil {
		t.Fatalf("set sync: %v", err)
	}

	values, err := local.Get("shared-key")
	if err != nil {
		t.Fatalf("get local: %v", err)
	}
	if string(values["shared-key"]) != "local-value" {
		t.Errorf("local area returned %q, want local-value", values["shared-key"])
	}

	values, err = sync.Get("shared-key")
	if err != nil {
		t.Fatalf("get sync: %v", err)
	}
	if string(values["shared-key"]) != "sync-value" {
		t.Errorf("sync area returned %q, want sync-value", values["shared-key"])
	}
}
