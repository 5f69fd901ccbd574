package tenant

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/restokit/pkg/subscription"
)

var (
	// ErrTenantNotFound is returned when a tenant cannot be found.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidSlug is returned when a slug is not URL-safe.
	ErrInvalidSlug = errors.New("invalid tenant slug")

	// ErrDuplicateSlug is returned when another tenant already uses the slug.
	ErrDuplicateSlug = errors.New("tenant slug already taken")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrInactiveTenant is returned when trying to use a disabled tenant.
	ErrInactiveTenant = fmt.Errorf("%w: tenant is inactive", subscription.ErrAccessDenied)
)
