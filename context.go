package reflective

import "context"

// containerContextKey is the key for storing a container in context.
type containerContextKey struct{}

// WithContainer returns a context carrying c.
func WithContainer(ctx context.Context, c *Container) context.Context {
	return context.WithValue(ctx, containerContextKey{}, c)
}

// FromContext gets the container attached with WithContainer.
func FromContext(ctx context.Context) (*Container, error) {
	c, ok := ctx.Value(containerContextKey{}).(*Container)
	if !ok || c == nil {
		return nil, ErrContainerNotInContext
	}
	return c, nil
}
