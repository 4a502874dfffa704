// Package di provides a small service container with typed tokens for
// cross-module wiring. Factories are lazy and memoized: a service is built on
// first lookup and shared afterwards.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get returns the service registered under name, building it from its
	// factory on first access. Returns nil when nothing is registered.
	Get(name string) any
}

// Container is the write side, used during module registration.
type Container interface {
	ServiceRegistry

	// Register stores an already-built service.
	Register(name string, service any)

	// RegisterFactory stores a lazy constructor for a service.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type container struct {
	mu        sync.RWMutex
	services  map[string]any
	factories map[string]func(ServiceRegistry) any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

func (c *container) Register(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

func (c *container) Get(name string) any {
	c.mu.RLock()
	if svc, ok := c.services[name]; ok {
		c.mu.RUnlock()
		return svc
	}
	factory, ok := c.factories[name]
	c.mu.RUnlock()

	if !ok {
		return nil
	}

	// Build outside the lock: factories may resolve other services.
	svc := factory(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.services[name]; ok {
		return existing
	}
	c.services[name] = svc
	return svc
}

// Token is a typed handle for a registered service.
type Token[T any] struct {
	name string
}

// NewToken creates a token. The name must be unique across modules; the
// convention is "<module>.<Service>" for public and "<module>:<dep>" for
// module-private registrations.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registration name behind the token.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory under the token's name.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a token to its service. Wiring mistakes (missing or
// mistyped registrations) are programmer errors and panic at startup rather
// than surfacing as runtime errors deep in request paths.
func GetToken[T any](c ServiceRegistry, token Token[T]) T {
	v := c.Get(token.name)
	if v == nil {
		panic(fmt.Sprintf("di: no service registered for %q", token.name))
	}
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has type %T, not the token type", token.name, v))
	}
	return typed
}
