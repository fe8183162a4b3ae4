package capability

import "context"

type valuesKey struct{}

// WithValues attaches request-scoped values to ctx. Capability actions and
// templates read them with Value.
func WithValues(ctx context.Context, values map[string]interface{}) context.Context {
	return context.WithValue(ctx, valuesKey{}, values)
}

// Values returns the request-scoped values of ctx, or nil.
func Values(ctx context.Context) map[string]interface{} {
	values, _ := ctx.Value(valuesKey{}).(map[string]interface{})
	return values
}

// Value returns one request-scoped value.
func Value(ctx context.Context, key string) interface{} {
	return Values(ctx)[key]
}
