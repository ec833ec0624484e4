package mediagroup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorCollectsAlbumInOrder(t *testing.T) {
	flushed := make(chan Group, 1)
	a := New(Options{
		Debounce: 20 * time.Millisecond,
		MaxItems: 2,
		OnFlush:  func(g Group) { flushed <- g },
	})

	a.Add(Item{ChatID: 1, UserID: 7, MediaGroupID: "album", FileID: "face"})
	a.Add(Item{ChatID: 1, UserID: 7, MediaGroupID: "album", FileID: "body", Caption: "wedding"})
	a.Add(Item{ChatID: 1, UserID: 7, MediaGroupID: "album", FileID: "extra"})

	select {
	case g := <-flushed:
		assert.Equal(t, []string{"face", "body"}, g.FileIDs)
		assert.Equal(t, 1, g.Dropped)
		assert.Equal(t, "wedding", g.Caption)
		assert.Equal(t, int64(7), g.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("album was not flushed")
	}
	assert.Equal(t, 0, a.Pending())
}

func TestAggregatorKeepsChatsApart(t *testing.T) {
	flushed := make(chan Group, 2)
	a := New(Options{
		Debounce: 20 * time.Millisecond,
		OnFlush:  func(g Group) { flushed <- g },
	})

	a.Add(Item{ChatID: 1, MediaGroupID: "same", FileID: "a"})
	a.Add(Item{ChatID: 2, MediaGroupID: "same", FileID: "b"})

	got := map[int64][]string{}
	for i := 0; i < 2; i++ {
		select {
		case g := <-flushed:
			got[g.ChatID] = g.FileIDs
		case <-time.After(2 * time.Second):
			t.Fatal("album was not flushed")
		}
	}
	assert.Equal(t, []string{"a"}, got[1])
	assert.Equal(t, []string{"b"}, got[2])
}

func TestAggregatorIgnoresIncompleteItemsAndClose(t *testing.T) {
	calls := make(chan Group, 1)
	a := New(Options{
		Debounce: 10 * time.Millisecond,
		OnFlush:  func(g Group) { calls <- g },
	})

	a.Add(Item{ChatID: 1, FileID: "no-group"})
	a.Add(Item{ChatID: 1, MediaGroupID: "g"})
	require.Equal(t, 0, a.Pending())

	a.Add(Item{ChatID: 1, MediaGroupID: "g", FileID: "x"})
	a.Close()
	a.Add(Item{ChatID: 1, MediaGroupID: "h", FileID: "y"})
	assert.Equal(t, 0, a.Pending())

	select {
	case <-calls:
		t.Fatal("closed aggregator flushed a group")
	case <-time.After(50 * time.Millisecond):
	}
}
