package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memo is the in-process tier in front of the sqlite store. It holds
// decompressed entries so repeated lookups in one run skip the database.
type memo struct {
	store *gocache.Cache
}

func newMemo(ttl, cleanupInterval time.Duration) *memo {
	return &memo{store: gocache.New(ttl, cleanupInterval)}
}

func memoKey(namespace, key string) string {
	return namespace + "\x00" + key
}

func (m *memo) get(namespace, key string) (Entry, bool) {
	v, ok := m.store.Get(memoKey(namespace, key))
	if !ok {
		return Entry{}, false
	}
	e, ok := v.(Entry)
	return e, ok
}

func (m *memo) set(e Entry) {
	m.store.Set(memoKey(e.Namespace, e.Key), e, gocache.DefaultExpiration)
}

func (m *memo) clear(namespace string) {
	if namespace == "" {
		m.store.Flush()
		return
	}
	for k := range m.store.Items() {
		if len(k) > len(namespace) && k[:len(namespace)+1] == namespace+"\x00" {
			m.store.Delete(k)
		}
	}
}

func (m *memo) len() int {
	return m.store.ItemCount()
}
