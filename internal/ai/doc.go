// Package ai holds the provider-neutral error values shared by every AI
// integration. Concrete providers live in subpackages and are selected by
// provider.NewFactory.
package ai
