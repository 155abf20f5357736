package vfs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ReplaceAndLoad(t *testing.T) {
	initial := baseFS()
	store := NewStore(initial)

	// The store keeps its own copy of the initial value
	initial["extra.txt"] = FileRecord{Content: "x", Kind: "txt"}
	assert.Len(t, store.Load(), 3)
	assert.Equal(t, uint64(0), store.Revision())

	next := store.Load().Clone()
	delete(next, "style.css")
	snap := store.Replace(next)

	assert.Equal(t, uint64(1), snap.Revision)
	assert.Equal(t, uint64(1), store.Revision())
	assert.Len(t, store.Load(), 2)
}

func TestStore_SubscribersSeeLatestSnapshot(t *testing.T) {
	store := NewStore(nil)
	ch := store.Subscribe()
	defer store.Unsubscribe(ch)

	for i := 0; i < 5; i++ {
		store.Replace(FileSystem{"a.txt": {Content: string(rune('a' + i)), Kind: "txt"}})
	}

	snap := <-ch
	assert.Equal(t, uint64(5), snap.Revision)
	assert.Equal(t, "e", snap.FileSystem["a.txt"].Content)
}

func TestStore_UnsubscribeClosesChannel(t *testing.T) {
	store := NewStore(nil)
	ch := store.Subscribe()
	store.Unsubscribe(ch)
	store.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)
	store.Replace(FileSystem{})
}

// Test that concurrent readers only ever see complete batches
func TestStore_ReadersNeverSeePartialBatch(t *testing.T) {
	store := NewStore(FileSystem{"a": {Content: "0"}, "b": {Content: "0"}})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			fs := store.Load()
			if fs["a"].Content != fs["b"].Content {
				select {
				case errs <- fs["a"].Content + "/" + fs["b"].Content:
				default:
				}
				return
			}
		}
	}()

	for i := 1; i <= 200; i++ {
		v := string(rune('0' + i%10))
		result := Apply(store.Load(), nil, nil)
		result.FileSystem["a"] = FileRecord{Content: v}
		result.FileSystem["b"] = FileRecord{Content: v}
		store.Replace(result.FileSystem)
	}
	close(stop)
	wg.Wait()

	select {
	case got := <-errs:
		require.Fail(t, "observed partial batch", got)
	default:
	}
}
