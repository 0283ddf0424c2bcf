package configure

import (
	"fmt"

	"github.com/go-redis/redis/v7"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// StatsStoreType keeps the latest status snapshots. Snapshots always land
// in the local cache; when a redis address is configured they are mirrored
// there too so an external dashboard can watch several monitors at once.
type StatsStoreType struct {
	redisCli   *redis.Client
	localCache *cache.Cache
}

var Stats = &StatsStoreType{
	localCache: cache.New(cache.NoExpiration, 0),
}

var saveInLocal = true

func Init() {
	saveInLocal = len(Config.GetString("redis_addr")) == 0
	if saveInLocal {
		return
	}

	Stats.redisCli = redis.NewClient(&redis.Options{
		Addr:     Config.GetString("redis_addr"),
		Password: Config.GetString("redis_pwd"),
		DB:       0,
	})

	_, err := Stats.redisCli.Ping().Result()
	if err != nil {
		log.Panic("Redis: ", err)
	}

	log.Info("Redis connected")
}

// SetSnapshot stores a serialized status snapshot under key.
func (s *StatsStoreType) SetSnapshot(key string, snapshot string) {
	s.localCache.SetDefault(key, snapshot)
	if !saveInLocal {
		if err := s.redisCli.Set(key, snapshot, 0).Err(); err != nil {
			log.Warning("Redis set: ", err)
		}
	}
}

// GetSnapshot returns the serialized snapshot stored under key.
func (s *StatsStoreType) GetSnapshot(key string) (string, error) {
	if snapshot, found := s.localCache.Get(key); found {
		return snapshot.(string), nil
	}
	if !saveInLocal {
		return s.redisCli.Get(key).Result()
	}
	return "", fmt.Errorf("%s does not exists", key)
}

// DeleteSnapshot removes the snapshot stored under key.
func (s *StatsStoreType) DeleteSnapshot(key string) bool {
	if _, found := s.localCache.Get(key); found {
		s.localCache.Delete(key)
	} else if saveInLocal {
		return false
	}
	if !saveInLocal {
		return s.redisCli.Del(key).Err() == nil
	}
	return true
}
