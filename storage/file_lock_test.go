//go:build unix

package storage_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jrsteele09/recharge-dashboard/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileConcurrentWritersKeepEveryKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	tabA, err := storage.NewFile(path)
	require.NoError(t, err)
	tabB, err := storage.NewFile(path)
	require.NoError(t, err)

	const perTab = 25
	var wg sync.WaitGroup
	for _, tab := range []struct {
		name  string
		store *storage.File
	}{{"a", tabA}, {"b", tabB}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perTab; i++ {
				assert.NoError(t, tab.store.SetItem(fmt.Sprintf("%s_%d", tab.name, i), "v"))
			}
		}()
	}
	wg.Wait()

	for _, name := range []string{"a", "b"} {
		for i := 0; i < perTab; i++ {
			_, ok, err := tabA.GetItem(fmt.Sprintf("%s_%d", name, i))
			require.NoError(t, err)
			require.True(t, ok, "%s_%d", name, i)
		}
	}
}
