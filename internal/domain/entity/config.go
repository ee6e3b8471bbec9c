package entity

import (
	"fmt"

	"github.com/lite-lake/zonesync/internal/domain"
)

const (
	PatchPolicyAny         = "any"
	PatchPolicyUnambiguous = "unambiguous"
	PatchPolicyNone        = "none"
)

type Config struct {
	TokenPath    string           `json:"token_path" yaml:"token_path" validate:"required"`
	Domain       string           `json:"domain" yaml:"domain" validate:"required,dnsname"`
	Retry        int              `json:"retry" yaml:"retry" validate:"gte=0"`
	Records      []RecordTemplate `json:"records" yaml:"records"`
	Concurrency  int              `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0"`
	PatchPolicy  string           `json:"patch_policy,omitempty" yaml:"patch_policy,omitempty" validate:"omitempty,oneof=any unambiguous none"`
	Endpoint     string           `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
	RateLimit    float64          `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty" validate:"gte=0"`
	CallAttempts int              `json:"call_attempts,omitempty" yaml:"call_attempts,omitempty" validate:"gte=0"`

	// BaseDir is the directory of the config document; token_path is
	// resolved against it.
	BaseDir string `json:"-" yaml:"-"`
}

func (c *Config) Validate() error {
	if c.Domain == "" {
		return domain.RequiredField("domain")
	}
	if c.TokenPath == "" {
		return domain.RequiredField("token_path")
	}
	for i := range c.Records {
		if err := c.Records[i].Validate(); err != nil {
			return fmt.Errorf("records[%d]: %w", i, err)
		}
	}
	return nil
}

func (c *Config) EffectivePatchPolicy() string {
	if c.PatchPolicy == "" {
		return PatchPolicyAny
	}
	return c.PatchPolicy
}
