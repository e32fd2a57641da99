package di

import "sync"

// Token is a typed handle for a service registered in the container.
// The type parameter carries the service type so lookups stay type-safe
// without casts at every call site.
type Token[T any] struct {
	name string
}

// NewToken creates a token under the given name. Names are namespaced by
// convention: "ctx.Service" for public services, "ctx:dep" for private ones.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the token's registry key.
func (t Token[T]) Name() string { return t.name }

// lazy defers construction until first resolution, so factories can pull
// their own dependencies out of the registry in any registration order.
type lazy[T any] struct {
	once    sync.Once
	factory func(ServiceRegistry) T
	value   T
}

func (l *lazy[T]) resolve(sr ServiceRegistry) T {
	l.once.Do(func() {
		l.value = l.factory(sr)
	})
	return l.value
}

// RegisterToken binds a lazily-constructed service to a token.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.Register(tok.Name(), &lazy[T]{factory: factory})
}

// GetToken resolves a token to its service, constructing it on first use.
// It also accepts eagerly-registered values under the same name.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	svc := sr.MustGet(tok.Name())
	if l, ok := svc.(*lazy[T]); ok {
		return l.resolve(sr)
	}
	return svc.(T)
}
