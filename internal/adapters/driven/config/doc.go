// Package config loads bot settings from a TOML file, a .env file and the
// environment, and writes the default file for `tutorbot config init`.
//
// Precedence, lowest first: built-in defaults, config file, TUTORBOT_*
// variables. Credentials are only read from the environment.
package config
