package auth

import "context"

type principalKey struct{}

// ContextWithPrincipal attaches the resolved principal. The authn middleware
// is the only writer; guards and handlers only read.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext reports the authenticated principal, if any. A false
// result means the request is anonymous.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(Principal)
	return principal, ok
}
