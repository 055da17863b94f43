// Package config loads and validates docvault server configuration.
//
// Configuration is merged from four sources, highest precedence first:
//
//  1. Command-line flags
//  2. Environment variables (DOCVAULT_ prefix, dots become underscores,
//     e.g. DOCVAULT_SERVER_PORT)
//  3. YAML config files (later files override earlier ones)
//  4. Built-in defaults
//
// A minimal config file:
//
//	server:
//	  port: 8080
//	  public_base_url: https://vault.example.com
//	database:
//	  type: sqlite
//	  dsn: docvault.db
//	storage:
//	  type: s3
//	  s3:
//	    bucket: docvault-blobs
//	auth:
//	  keys:
//	    file: /etc/docvault/keys.json
//
// The loaded struct is validated with go-playground/validator; Load returns
// an error naming the offending field when a value is out of range.
package config
