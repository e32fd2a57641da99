// Package di provides a minimal string-token service container used to
// wire modules together at startup.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry provides read access to registered services.
type ServiceRegistry interface {
	// Get returns the service registered under token, or nil.
	Get(token string) any

	// MustGet returns the service registered under token and panics if absent.
	MustGet(token string) any
}

// Container extends ServiceRegistry with registration.
type Container interface {
	ServiceRegistry

	// Register binds a service to a token. Re-registering a token panics:
	// wiring happens once at startup and a silent overwrite is a bug.
	Register(token string, service any)
}

type container struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewContainer creates an empty Container.
func NewContainer() Container {
	return &container{
		services: make(map[string]any),
	}
}

func (c *container) Register(token string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.services[token]; exists {
		panic(fmt.Sprintf("di: token %q already registered", token))
	}
	c.services[token] = service
}

func (c *container) Get(token string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services[token]
}

func (c *container) MustGet(token string) any {
	s := c.Get(token)
	if s == nil {
		panic(fmt.Sprintf("di: token %q not registered", token))
	}
	return s
}
