package settings

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shortsforge/ShortsForgeGuard/internal/models"
	"gorm.io/gorm"
)

type snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

var globalSnapshot atomic.Value

func init() {
	globalSnapshot.Store(snapshot{values: make(map[string]json.RawMessage)})
}

// RefreshDBConfig reloads the settings table into the in-memory snapshot.
// Called at startup and after every admin settings write.
func RefreshDBConfig(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return nil
	}
	var rows []models.Setting
	if errFind := conn.WithContext(ctx).Find(&rows).Error; errFind != nil {
		return errFind
	}
	next := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		key := strings.TrimSpace(row.Key)
		if key == "" {
			continue
		}
		value := make(json.RawMessage, len(row.Value))
		copy(value, row.Value)
		next[key] = value
	}
	globalSnapshot.Store(snapshot{updatedAt: time.Now().UTC(), values: next})
	return nil
}

// DBConfigValue returns the raw JSON value stored for a settings key.
func DBConfigValue(key string) (json.RawMessage, bool) {
	snap, ok := globalSnapshot.Load().(snapshot)
	if !ok {
		return nil, false
	}
	value, okValue := snap.values[strings.TrimSpace(key)]
	return value, okValue
}
