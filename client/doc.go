// Package client is a Go client for the docvault server.
//
// It signs API requests with query-string AWS Signature V4 and drives the
// two-phase upload flow: request a write handle, transfer the bytes directly
// to the blob store, then finalize the descriptor. Downloads follow the same
// indirection in reverse.
//
//	cfg := &client.Config{
//	    Endpoint:  "https://vault.example.com",
//	    AccessKey: "AKIDEXAMPLE",
//	    SecretKey: "secret",
//	}
//	c, err := client.New(cfg)
//	result, err := c.Upload(ctx, client.UploadOptions{LocalPath: "report.pdf"})
//	info, err := c.Share(ctx, result.Descriptor.ID)
//
// Server credentials come from profiles in ~/.docvault/config.yaml or
// DOCVAULT_* environment variables; see ConfigFile and MergeConfig.
package client
