package api

import (
	"sync"

	"github.com/rs/zerolog"
)

// Context carries the per-run state shared by providers and rules. It is
// created once by the engine and handed to every provider.
type Context struct {
	// Logger is the run logger; rules should derive a child logger from it
	Logger zerolog.Logger

	// BasePath is the directory finding paths are relative to
	BasePath string

	// TypeResolution reports whether resolved type information is available
	TypeResolution bool

	mu        sync.Mutex
	resources map[string]*resource
}

type resource struct {
	once  sync.Once
	value any
	err   error
}

// NewContext creates a run context
func NewContext(logger zerolog.Logger, basePath string) *Context {
	return &Context{
		Logger:    logger,
		BasePath:  basePath,
		resources: make(map[string]*resource),
	}
}

// Resource returns the value stored under key, calling load the first time
// the key is requested. Concurrent callers wait for the same load.
func (c *Context) Resource(key string, load func() (any, error)) (any, error) {
	c.mu.Lock()
	if c.resources == nil {
		c.resources = make(map[string]*resource)
	}
	res, ok := c.resources[key]
	if !ok {
		res = &resource{}
		c.resources[key] = res
	}
	c.mu.Unlock()

	res.once.Do(func() {
		res.value, res.err = load()
	})
	return res.value, res.err
}
