package push

import (
	"github.com/frahmantamala/complaint-management/internal/core/common/validation"
)

// SubscribeDTO mirrors the browser's PushSubscription.toJSON().
type SubscribeDTO struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (dto SubscribeDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("endpoint", dto.Endpoint).Required().MaxLength(2048)
	v.Field("keys.p256dh", dto.Keys.P256dh).Required()
	v.Field("keys.auth", dto.Keys.Auth).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UnsubscribeDTO struct {
	Endpoint string `json:"endpoint"`
}

func (dto UnsubscribeDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("endpoint", dto.Endpoint).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
