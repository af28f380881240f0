package judopay

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// SandboxURL is the gateway used for testing.
	SandboxURL = "https://gw1.judopay-sandbox.com"
	// LiveURL is the production gateway.
	LiveURL = "https://gw1.judopay.com"

	DefaultAPIVersion = "6.0.0"
	DefaultUserAgent  = "judopay-go/1.0"
)

// ErrInvalidConfiguration matches every *ConfigurationError via errors.Is.
var ErrInvalidConfiguration = errors.New("invalid judopay configuration")

// Configuration holds the settings needed to talk to the gateway.
type Configuration struct {
	EndpointURL      string `json:"endpointUrl" validate:"required,url"`
	APIVersion       string `json:"apiVersion" validate:"required"`
	UserAgent        string `json:"userAgent" validate:"required"`
	OAuthAccessToken string `json:"oauthAccessToken"`
	APIToken         string `json:"apiToken" validate:"required_without=OAuthAccessToken"`
	APISecret        string `json:"apiSecret" validate:"required_without=OAuthAccessToken"`
	JudoID           string `json:"judoId"`
	UseProduction    bool   `json:"useProduction"`
}

// DefaultConfiguration returns a sandbox configuration with no credentials.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		EndpointURL: SandboxURL,
		APIVersion:  DefaultAPIVersion,
		UserAgent:   DefaultUserAgent,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks that the configuration is complete enough to authenticate.
// Either an OAuth access token or an API token and secret pair is required.
func (c *Configuration) Validate() error {
	if c == nil {
		return &ConfigurationError{Fields: []FieldError{{Field: "configuration", Rule: "required"}}}
	}

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate configuration: %w", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return &ConfigurationError{Fields: fields}
}

// FieldError names a configuration field and the rule it failed.
type FieldError struct {
	Field string
	Rule  string
}

// ConfigurationError is returned when a Configuration fails validation.
type ConfigurationError struct {
	Fields []FieldError
}

func (e *ConfigurationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidConfiguration.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfiguration.Error(), strings.Join(parts, ", "))
}

// Is implements errors.Is for ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}
