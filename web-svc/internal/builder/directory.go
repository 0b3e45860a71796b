package builder

import (
	"context"

	"digital-menu/web-svc/internal/domain"
	"digital-menu/web-svc/internal/remote"
)

var (
	_ Backend   = (*remote.UserClient)(nil)
	_ Directory = RemoteDirectory{}
)

// RemoteDirectory serves builders straight from catalog-svc.
type RemoteDirectory struct {
	Client *remote.Client
}

func (d RemoteDirectory) CurrentUser(ctx context.Context, token string) (domain.Account, error) {
	return d.Client.CurrentUser(ctx, token)
}

func (d RemoteDirectory) Backend(token string) Backend {
	return d.Client.ForUser(token)
}
