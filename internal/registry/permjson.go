package registry

import (
	"encoding/json"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/theater-rt/theater/internal/permission"
)

// permissionsDTO is a plain, JSON-friendly projection of
// permission.Permissions. fn.Option[T] has no JSON (de)serialization of its
// own in the upstream package, so Permissions is converted to/from this
// pointer-per-field shape explicitly rather than marshaled directly.
type permissionsDTO struct {
	Filesystem  *permission.FilesystemPermissions  `json:"filesystem,omitempty"`
	HTTPClient  *permission.HTTPClientPermissions  `json:"http_client,omitempty"`
	Process     *permission.ProcessPermissions     `json:"process,omitempty"`
	Environment *permission.EnvironmentPermissions `json:"environment,omitempty"`
	Random      *permission.RandomPermissions      `json:"random,omitempty"`
	Timing      *permission.TimingPermissions      `json:"timing,omitempty"`
}

func marshalPermissions(p permission.Permissions) ([]byte, error) {
	dto := permissionsDTO{
		Filesystem:  optionToPtr(p.Filesystem),
		HTTPClient:  optionToPtr(p.HTTPClient),
		Process:     optionToPtr(p.Process),
		Environment: optionToPtr(p.Environment),
		Random:      optionToPtr(p.Random),
		Timing:      optionToPtr(p.Timing),
	}

	return json.Marshal(dto)
}

func unmarshalPermissions(data []byte) (permission.Permissions, error) {
	var dto permissionsDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return permission.Permissions{}, err
	}

	return permission.Permissions{
		Filesystem:  ptrToOption(dto.Filesystem),
		HTTPClient:  ptrToOption(dto.HTTPClient),
		Process:     ptrToOption(dto.Process),
		Environment: ptrToOption(dto.Environment),
		Random:      ptrToOption(dto.Random),
		Timing:      ptrToOption(dto.Timing),
	}, nil
}

func optionToPtr[T any](o fn.Option[T]) *T {
	if o.IsNone() {
		return nil
	}

	var zero T
	v := o.UnwrapOr(zero)

	return &v
}

func ptrToOption[T any](p *T) fn.Option[T] {
	if p == nil {
		return fn.None[T]()
	}

	return fn.Some(*p)
}
