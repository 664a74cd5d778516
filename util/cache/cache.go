package cache

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
)

var DefaultCacheExpire = time.Hour

// Cache keeps values by string key. Get reports false for a missing or
// expired key.
type Cache interface {
	Get(string) (interface{}, bool)
	Set(string, interface{}, time.Duration) error
	Remove(string) bool
	Purge() error
}

// NewCacheFromURI creates Cache from uri; "gcache://?type=lru&size=100&expire=1h"
// or "dummy://".
func NewCacheFromURI(uri string) (Cache, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid uri of cache, %q", uri)
	}

	switch u.Scheme {
	case "gcache":
		return NewGCacheWithQuery(u.Query())
	case "dummy":
		return Dummy{}, nil
	default:
		return nil, errors.Errorf("not supported uri of cache, %q", uri)
	}
}
