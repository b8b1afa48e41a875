package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/conneroisu/knygynas/internal/logging"
)

// Output formats accepted by the listing commands.
const (
	formatTable = "table"
	formatText  = "text"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// AddFlagValidation validates every value assigned to the named flag before
// it is stored. The default value is not validated.
func AddFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormat checks format against the supported list.
func ValidateFormat(format string, supported ...string) error {
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(supported, ", "))
}

// formatValidator adapts ValidateFormat for AddFlagValidation.
func formatValidator(supported ...string) func(string) error {
	return func(format string) error {
		return ValidateFormat(format, supported...)
	}
}

// ValidatePort checks that portStr is a usable TCP port.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	return nil
}

// ValidateLogLevel checks a --log-level value.
func ValidateLogLevel(level string) error {
	_, err := logging.ParseLevel(level)
	return err
}
