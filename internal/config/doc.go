// SPDX-License-Identifier: MPL-2.0

// Package config loads the nagaoil build settings using Viper with CUE as the
// file format.
//
// Values are layered, highest precedence first: command-line flags, NAGA_OIL_*
// environment variables, a `.env` file in the working directory, the project
// file (nagaoil.cue, or the file named by --config / NAGA_OIL_CONFIG), and
// built-in defaults. The project file is validated against the #Config schema
// in config_schema.cue before it is merged.
package config
