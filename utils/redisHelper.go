package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/dpcompass/compass_backend/config"
)

var ErrorLockNotObtained = errors.New("resource is busy, try again")

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	return reflect.TypeOf(v).Name()
}

/* Redis */

// store instance under Type:$id, obj should be a pointer
func StoreRedis[T any](obj *T, id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.SetRedisObject(key, obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &result, nil
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

// store list under TypeList
func StoreRedisList[T any](list []*T) error {
	return config.SetRedisObject(GetTypeName[T]()+"List", list, GetCacheLifespan())
}

// retrieve list stored under TypeList
// returns nil if does not exist
func RetrieveRedisList[T any]() ([]*T, error) {
	var result []*T
	exists, err := config.GetRedisObject(GetTypeName[T]()+"List", &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

func RemoveRedisList[T any]() error {
	return config.RemoveRedisKey(GetTypeName[T]() + "List")
}

// ObtainLock takes a redis lock on lockType:key. The returned release func must be called.
// When redis is not connected the lock is skipped.
func ObtainLock(ctx context.Context, lockType string, key string, ttl time.Duration) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lock, err := locker.Obtain(ctx, fmt.Sprintf("lock:%s:%s", lockType, key), ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrorLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.LogError(config.GetLogger(), "redisHelper.go", "ObtainLock", "release lock", lockType+":"+key, err)
		}
	}, nil
}
