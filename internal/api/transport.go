package api

import (
	"context"
	"net/url"
	"strconv"
)

// Transport is the subset of the HTTP adapter the domain modules rely on.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string) error
}

func idPath(prefix string, id uint, suffix ...string) string {
	path := prefix + "/" + strconv.FormatUint(uint64(id), 10)
	for _, part := range suffix {
		path += "/" + part
	}
	return path
}

func setUint(values url.Values, key string, value *uint) {
	if value != nil {
		values.Set(key, strconv.FormatUint(uint64(*value), 10))
	}
}

func setBool(values url.Values, key string, value *bool) {
	if value != nil {
		values.Set(key, strconv.FormatBool(*value))
	}
}

func setPositive(values url.Values, key string, value int) {
	if value > 0 {
		values.Set(key, strconv.Itoa(value))
	}
}
