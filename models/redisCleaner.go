package models

import "github.com/dpcompass/compass_backend/utils"

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list if exists
}

// remove both item & list
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

func (user User) RemoveAllRedis() error {
	return nil
}

func (obj ChecklistItem) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[ChecklistItem](obj.ID)
}

func (obj ChecklistItem) RemoveAllRedis() error {
	return clearChecklistCache()
}

func (obj AuditCategory) RemoveInstanceRedis() error {
	return nil
}

func (obj AuditCategory) RemoveAllRedis() error {
	return clearChecklistCache()
}
