package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/sketchdoc/internal/directive"
)

// enumValue is a string flag restricted to a fixed set of values. The empty
// string means "not given" and leaves the configured value in place.
type enumValue struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*enumValue)(nil)

func newEnumValue(def string, allowed ...string) *enumValue {
	return &enumValue{value: def, allowed: allowed}
}

func (e *enumValue) String() string { return e.value }

// Type reports "string" so viper binds the flag like a plain string.
func (e *enumValue) Type() string { return "string" }

func (e *enumValue) Set(val string) error {
	val = strings.ToLower(strings.TrimSpace(val))
	for _, a := range e.allowed {
		if val == a {
			e.value = val
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(e.allowed, ", "))
}

// sizeValue parses "W,H" drawing sizes.
type sizeValue struct {
	width, height int
	set           bool
}

var _ pflag.Value = (*sizeValue)(nil)

func (s *sizeValue) String() string {
	if !s.set {
		return ""
	}
	return fmt.Sprintf("%d,%d", s.width, s.height)
}

func (s *sizeValue) Type() string { return "W,H" }

func (s *sizeValue) Set(val string) error {
	w, h, err := directive.ParseSize(val)
	if err != nil {
		return err
	}
	s.width, s.height, s.set = w, h, true
	return nil
}

// AddFlagValidation wraps an existing flag so that every value is checked
// by validator before it is stored.
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}
	flag.Value = &validatingValue{Value: flag.Value, validator: validator}
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

// ValidatePort checks a TCP port given on the command line.
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

// ValidateHost rejects empty hosts and hosts that carry a port or scheme.
func ValidateHost(host string) error {
	if strings.TrimSpace(host) == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if strings.ContainsAny(host, "/: ") {
		return fmt.Errorf("host must be a bare name or address, got %q", host)
	}
	return nil
}
