package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var errEmpty = errors.New("cache: empty value")

// Key 各段去首尾空白、转小写、合并内部空白后用 ':' 连接
func Key(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.Join(strings.Fields(p), " "))
	}
	return strings.Join(parts, ":")
}

// GetOrLoadJSON 值按 JSON 存；load 出错或返回 nil 都不写缓存
// （地图服务的“地点无效”也可能是临时故障）
func GetOrLoadJSON[T any](c *Cache, ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) (*T, error)) (*T, error) {
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if v == nil {
			return nil, errEmpty
		}
		return json.Marshal(v)
	})
	switch {
	case errors.Is(err, errEmpty):
		return nil, nil
	case err != nil:
		return nil, err
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil {
		return nil, e
	}
	return &out, nil
}
