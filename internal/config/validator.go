package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/go-playground/validator/v10"
)

var (
	logLevels  = []string{"", "trace", "debug", "info", "warn", "error", "fatal", "panic"}
	logFormats = []string{"", "console", "text", "json"}
)

var configValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	rules := map[string]validator.Func{
		"loglevel": func(fl validator.FieldLevel) bool {
			return slices.Contains(logLevels, strings.ToLower(fl.Field().String()))
		},
		"logformat": func(fl validator.FieldLevel) bool {
			return slices.Contains(logFormats, strings.ToLower(fl.Field().String()))
		},
		// every entry of a []string is an email address
		"emails": func(fl validator.FieldLevel) bool {
			addresses, ok := fl.Field().Interface().([]string)
			if !ok {
				return false
			}
			for _, addr := range addresses {
				if v.Var(addr, "required,email") != nil {
					return false
				}
			}
			return true
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return v
})

// ValidateConfig checks field rules and the few constraints that span sections.
// All problems are reported together, one per line.
func ValidateConfig(cfg *GlobalConfig) error {
	var messages []string

	if err := configValidator().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return errorwrapper.WrapError(err, "configuration validation error")
		}
		for _, fe := range fieldErrs {
			messages = append(messages, describeFieldError(fe))
		}
	}
	messages = append(messages, crossSectionProblems(cfg)...)

	if len(messages) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n  %s", errorwrapper.ErrInvalidConfiguration, strings.Join(messages, "\n  "))
}

func describeFieldError(fe validator.FieldError) string {
	msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", strings.TrimPrefix(fe.StructNamespace(), "GlobalConfig."), fe.Tag())
	if fe.Param() != "" {
		msg += fmt.Sprintf(" (expected: %s)", fe.Param())
	}
	if v := fe.Value(); v != nil && v != "" {
		msg += fmt.Sprintf(", actual: '%v'", v)
	}
	return msg
}

func crossSectionProblems(cfg *GlobalConfig) []string {
	var problems []string
	if cfg.MonitorConfig.HTTPTimeout() >= cfg.MonitorConfig.CheckInterval() {
		problems = append(problems, "MonitorConfig.HTTPTimeoutSeconds must be shorter than MonitorConfig.CheckIntervalSeconds")
	}
	if cfg.NotificationConfig.SMTPUsername != "" && cfg.NotificationConfig.SMTPPassword == "" {
		problems = append(problems, "NotificationConfig.SMTPPassword is required when SMTPUsername is set (EMAIL_PASSWORD)")
	}
	return problems
}
