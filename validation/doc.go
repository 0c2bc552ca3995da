// Package validation provides input validation for archivekit configuration
// and the dev server's request handling.
//
// It supports struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// used for configuration structs.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    AuthURL  string `mapstructure:"auth_url" validate:"required,url"`
//	    Username string `mapstructure:"username" validate:"required"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("container", name)
//	err := v.Err()
package validation
