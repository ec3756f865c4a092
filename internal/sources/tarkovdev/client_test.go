package tarkovdev

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nivmizz7/tarkov-data-overlay/internal/cache"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/errors"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

const regularBody = `{"data":{"tasks":[
 {"id":"t1","name":"Debut","normalizedName":"debut","wikiLink":"https://escapefromtarkov.fandom.com/wiki/Debut",
  "minPlayerLevel":1,"experience":1700,"trader":{"id":"p","name":"Prapor"},"map":null,
  "taskRequirements":[],
  "objectives":[
   {"id":"o1","type":"shoot","description":"Eliminate Scavs on Customs","count":5,"maps":[{"id":"m1","name":"Customs"}]},
   {"id":"o2","type":"giveItem","description":"Hand over MP-133","count":2,"foundInRaid":true,"items":[{"id":"i1","name":"MP-133 12ga shotgun","shortName":"MP-133"}]},
   {"id":"o3","type":"skill","description":"Reach Endurance level 3","skillLevel":{"name":"Endurance","level":3}}
  ],
  "finishRewards":{"traderStanding":[{"trader":{"name":"Prapor"},"standing":0.02}],
   "items":[{"count":15000,"item":{"id":"r","name":"Roubles"}},{"count":1,"item":{"id":"b","name":"Bandage"}}]}},
 {"id":"t2","name":"Checking","taskRequirements":[{"task":{"id":"t1","name":"Debut"}}],
  "objectives":[{"id":"o4","type":"plantItem","description":"Stash the bronze lion","markerItem":{"id":"ms","name":"MS2000 Marker"},"questItem":{"id":"q","name":"Bronze lion"}}]}
]}}`

const pveBody = `{"data":{"tasks":[
 {"id":"t1","name":"Debut","objectives":[]},
 {"id":"t3","name":"PvE only","objectives":[]}
]}}`

type memCache struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
}

func newMemCache() *memCache { return &memCache{entries: make(map[string]cache.Entry)} }

func (m *memCache) Get(_ context.Context, ns, key string) (cache.Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[ns+"/"+key]
	return e, ok, nil
}

func (m *memCache) Put(_ context.Context, ns, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[ns+"/"+key] = cache.Entry{Namespace: ns, Key: key, Payload: payload, Fresh: true}
	return nil
}

func (m *memCache) set(ns, key string, payload string, fresh bool) {
	m.entries[ns+"/"+key] = cache.Entry{Namespace: ns, Key: key, Payload: []byte(payload), Fresh: fresh}
}

func feed(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "gameMode: $gameMode")
		switch req.Variables["gameMode"] {
		case "pve":
			_, _ = w.Write([]byte(pveBody))
		default:
			_, _ = w.Write([]byte(regularBody))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchConvertsTasks(t *testing.T) {
	var hits atomic.Int32
	srv := feed(t, &hits)

	list, err := New(WithURL(srv.URL)).Fetch(context.Background(), tasks.GameModeRegular)
	require.NoError(t, err)
	require.Len(t, list, 2)

	debut := list[0]
	assert.Equal(t, "Debut", debut.Name)
	assert.Equal(t, "Prapor", debut.Trader)
	assert.Nil(t, debut.Map)
	assert.Equal(t, []tasks.GameMode{tasks.GameModeRegular}, debut.GameModes)
	require.NotNil(t, debut.MinPlayerLevel)
	assert.Equal(t, 1, *debut.MinPlayerLevel)
	assert.Equal(t, 1700, debut.Rewards.Experience)
	assert.Equal(t, []tasks.TraderStanding{{Trader: "Prapor", Delta: 0.02}}, debut.Rewards.Reputation)
	assert.Equal(t, []tasks.MoneyReward{{Currency: "RUB", Amount: 15000}}, debut.Rewards.Money)
	assert.Equal(t, []tasks.ItemReward{{Item: tasks.ItemRef{ID: "b", Name: "Bandage"}, Count: 1}}, debut.Rewards.Items)

	require.Len(t, debut.Objectives, 3)
	shoot := debut.Objectives[0]
	assert.Equal(t, tasks.ObjectiveShoot, shoot.Type)
	assert.Equal(t, []tasks.MapRef{{ID: "m1", Name: "Customs"}}, shoot.Maps)
	require.NotNil(t, shoot.Count)
	assert.Equal(t, 5, *shoot.Count)

	give := debut.Objectives[1]
	assert.Equal(t, tasks.ObjectiveGiveItem, give.Type)
	assert.True(t, give.IsFoundInRaid())
	assert.Equal(t, "MP-133", give.Items[0].ShortName)

	skill := debut.Objectives[2]
	assert.Equal(t, tasks.ObjectiveBasic, skill.Type)
	assert.Equal(t, "skill", skill.Kind)
	assert.True(t, skill.IsSkill())
	require.NotNil(t, skill.Count)
	assert.Equal(t, 3, *skill.Count)

	checking := list[1]
	assert.Equal(t, []tasks.TaskRef{{ID: "t1", Name: "Debut"}}, checking.Requirements)
	plant := checking.Objectives[0]
	assert.Equal(t, tasks.ObjectiveUseItem, plant.Type)
	assert.Equal(t, []tasks.ItemRef{{ID: "q", Name: "Bronze lion"}, {ID: "ms", Name: "MS2000 Marker"}}, plant.Items)
}

func TestFetchUsesFreshCache(t *testing.T) {
	var hits atomic.Int32
	srv := feed(t, &hits)
	store := newMemCache()
	client := New(WithURL(srv.URL), WithCache(store))

	_, err := client.Fetch(context.Background(), tasks.GameModeRegular)
	require.NoError(t, err)
	_, err = client.Fetch(context.Background(), tasks.GameModeRegular)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchFallsBackToStaleCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	store := newMemCache()
	store.set(cache.NamespaceTasks, "regular", pveBody, false)

	list, err := New(WithURL(srv.URL), WithCache(store)).Fetch(context.Background(), tasks.GameModeRegular)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFetchOffline(t *testing.T) {
	var hits atomic.Int32
	srv := feed(t, &hits)

	store := newMemCache()
	store.set(cache.NamespaceTasks, "regular", pveBody, false)
	client := New(WithURL(srv.URL), WithCache(store), WithOffline(true))

	list, err := client.Fetch(context.Background(), tasks.GameModeRegular)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = client.Fetch(context.Background(), tasks.GameModePvE)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, hits.Load())
}

func TestFetchGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"bad field"},{"message":"bad arg"}]}`))
	}))
	defer srv.Close()

	_, err := New(WithURL(srv.URL)).Fetch(context.Background(), tasks.GameModeRegular)
	require.Error(t, err)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bad field; bad arg", apiErr.Message)
}

func TestFetchDoesNotCacheGraphQLErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"data":{"tasks":[]},"errors":[{"message":"rate limited"}]}`))
			return
		}
		_, _ = w.Write([]byte(pveBody))
	}))
	defer srv.Close()

	store := newMemCache()
	client := New(WithURL(srv.URL), WithCache(store))

	_, err := client.Fetch(context.Background(), tasks.GameModeRegular)
	require.Error(t, err)
	_, cached, _ := store.Get(context.Background(), cache.NamespaceTasks, "regular")
	assert.False(t, cached, "a failed response must not be cached")

	list, err := client.Fetch(context.Background(), tasks.GameModeRegular)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int32(2), hits.Load())

	// The good response is cached now.
	_, err = client.Fetch(context.Background(), tasks.GameModeRegular)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchGraphQLErrorsFallBackToStaleCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"maxlag"}]}`))
	}))
	defer srv.Close()

	store := newMemCache()
	store.set(cache.NamespaceTasks, "regular", pveBody, false)

	list, err := New(WithURL(srv.URL), WithCache(store)).Fetch(context.Background(), tasks.GameModeRegular)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestFetchAllMergesModes(t *testing.T) {
	var hits atomic.Int32
	srv := feed(t, &hits)

	list, err := New(WithURL(srv.URL)).FetchAll(context.Background(), []tasks.GameMode{tasks.GameModeRegular, tasks.GameModePvE})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, int32(2), hits.Load())

	assert.Equal(t, "t1", list[0].ID)
	assert.Equal(t, []tasks.GameMode{tasks.GameModeRegular, tasks.GameModePvE}, list[0].GameModes)
	assert.Len(t, list[0].Objectives, 3, "first mode's record wins")
	assert.Equal(t, "t3", list[2].ID)
	assert.Equal(t, []tasks.GameMode{tasks.GameModePvE}, list[2].GameModes)
}

func TestFetchAllSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(WithURL(srv.URL)).FetchAll(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsSourceUnavailable(err))
}

func TestMerge(t *testing.T) {
	a := []tasks.StructuredTask{{ID: "1", GameModes: []tasks.GameMode{tasks.GameModeRegular}}}
	b := []tasks.StructuredTask{
		{ID: "2", GameModes: []tasks.GameMode{tasks.GameModePvE}},
		{ID: "1", GameModes: []tasks.GameMode{tasks.GameModePvE}},
	}
	got := Merge(a, b)
	require.Len(t, got, 2)
	assert.Equal(t, []tasks.GameMode{tasks.GameModeRegular, tasks.GameModePvE}, got[0].GameModes)
	assert.Equal(t, "2", got[1].ID)
}
