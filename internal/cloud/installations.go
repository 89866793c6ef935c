package cloud

import (
	"context"
	"fmt"

	"github.com/evilb/openmotics/internal/models"
)

// ListInstallations returns the installations visible to the caller. filter
// is the URL-encoded JSON filter understood by the cloud, or "".
func (c *Client) ListInstallations(ctx context.Context, filter string) ([]models.Installation, error) {
	installations, err := list[models.Installation](ctx, c, models.InstallationSchema, "/base/installations", filterParams(filter))
	if err != nil {
		return nil, fmt.Errorf("list installations: %w", err)
	}
	return installations, nil
}

// GetInstallation returns a single installation.
func (c *Client) GetInstallation(ctx context.Context, id int) (models.Installation, error) {
	if err := checkID("installation", id); err != nil {
		return models.Installation{}, err
	}
	inst, err := one[models.Installation](ctx, c, models.InstallationSchema, fmt.Sprintf("/base/installations/%d", id))
	if err != nil {
		return models.Installation{}, fmt.Errorf("get installation %d: %w", id, err)
	}
	return inst, nil
}

// FindInstallation looks an installation up by exact name.
func (c *Client) FindInstallation(ctx context.Context, name string) (models.Installation, error) {
	installations, err := c.ListInstallations(ctx, "")
	if err != nil {
		return models.Installation{}, err
	}
	for _, inst := range installations {
		if inst.Name == name {
			return inst, nil
		}
	}
	return models.Installation{}, fmt.Errorf("installation %q: %w", name, ErrNotFound)
}
