package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/miekg/dns"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/lite-lake/zonesync/internal/domain"
	"github.com/lite-lake/zonesync/internal/domain/entity"
)

type ConfigLoader struct {
	fs       afero.Fs
	validate *validator.Validate
}

type Option func(*ConfigLoader)

func WithFs(fs afero.Fs) Option {
	return func(l *ConfigLoader) { l.fs = fs }
}

func NewConfigLoader(opts ...Option) *ConfigLoader {
	l := &ConfigLoader{
		fs:       afero.NewOsFs(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("dnsname", func(fl validator.FieldLevel) bool {
		_, ok := dns.IsDomainName(fl.Field().String())
		return ok
	})
	return v
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func decodeDocument[T any](path string, data []byte) (*T, error) {
	var out T
	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
		return &out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Load reads the config document at path. BaseDir is set to the
// document's directory.
func (l *ConfigLoader) Load(ctx context.Context, path string) (*entity.Config, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, domain.NewOpError("read config", fmt.Errorf("%w: %v", domain.ErrConfigReadFailed, err)))
	}

	cfg, err := decodeDocument[entity.Config](path, data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, domain.NewOpError("parse config", fmt.Errorf("%w: %v", domain.ErrConfigParseFailed, err)))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.BaseDir = filepath.Dir(abs)

	return cfg, nil
}

func (l *ConfigLoader) Validate(cfg *entity.Config) error {
	if cfg == nil {
		return domain.ErrConfigNotLoaded
	}

	if err := l.validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "dnsname" {
					return fmt.Errorf("%w: %w: %q", domain.ErrConfigValidateFail, domain.ErrInvalidDomain, fe.Value())
				}
			}
		}
		return fmt.Errorf("%w: %v", domain.ErrConfigValidateFail, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfigValidateFail, err)
	}

	return nil
}

// TokenPath resolves token_path against the config directory.
func TokenPath(cfg *entity.Config) string {
	if filepath.IsAbs(cfg.TokenPath) || cfg.BaseDir == "" {
		return cfg.TokenPath
	}
	return filepath.Join(cfg.BaseDir, cfg.TokenPath)
}

// LoadToken reads the API token. The file holds a JSON string; bare text
// is accepted too.
func (l *ConfigLoader) LoadToken(ctx context.Context, cfg *entity.Config) (string, error) {
	if cfg == nil {
		return "", domain.ErrConfigNotLoaded
	}
	path := TokenPath(cfg)

	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("token file %s does not exist: %w", path, domain.ErrTokenReadFailed)
		}
		return "", fmt.Errorf("reading token %s: %w", path, domain.WrapOp("read token", domain.ErrTokenReadFailed))
	}

	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		token = string(data)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("token file %s: %w: %w", path, domain.ErrTokenReadFailed, domain.ErrEmptyValue)
	}

	return token, nil
}
