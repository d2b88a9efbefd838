// Package config loads lexicon settings from config.yaml, a .env file and
// LEXICON_-prefixed environment variables, and validates them before any
// component is built. Engine tuning (srs, planner) is optional; zero values
// fall back to the engines' defaults.
package config
