// Package di contains dependency injection tokens for the exchange context.
package di

import (
	"github.com/fd1az/flasharb/business/exchange/domain"
	"github.com/fd1az/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Exchange = di.NewToken[*domain.Exchange]("exchange.Exchange")
)

// Helper functions for type-safe access
func GetExchange(c di.ServiceRegistry) *domain.Exchange {
	return di.GetToken(c, Exchange)
}
