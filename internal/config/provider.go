// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// Provider yields the launch configuration together with the path of the
// manifest it came from ("" when only defaults and environment applied).
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, string, error)
}

// ProviderFunc lets a plain function serve as a Provider.
type ProviderFunc func(ctx context.Context, opts LoadOptions) (*Config, string, error)

func (f ProviderFunc) Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return f(ctx, opts)
}

// NewProvider returns the manifest-and-environment Provider.
func NewProvider() Provider {
	return ProviderFunc(loadWithOptions)
}
