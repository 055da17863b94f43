// Package docvault provides an access-controlled indirection layer for
// object storage: authenticated owners upload documents through short-lived
// write handles, track metadata, and grant private (owner-only) or public
// (token-gated) read access while downloads are counted.
//
// # Key Components
//
//   - Broker: the decision core; authorizes every operation and orchestrates
//     the two-phase upload and the share-token lifecycle
//   - DescriptorRepo: interface for descriptor persistence (PostgreSQL, SQLite)
//   - BlobGateway: interface for capability-handle issuance (S3, in-memory)
//   - SignatureVerifier: AWS Signature V4 caller authentication
//
// # Two-phase upload
//
// An upload is pending only as the WriteGrant returned by InitiateUpload;
// no descriptor row exists until FinalizeUpload succeeds. Abandoned uploads
// leave no metadata, at the cost of a possible orphaned blob.
//
// # Example Usage
//
//	broker, err := docvault.NewBroker(repo, gateway, docvault.BrokerConfig{
//	    ShareBaseURL: "https://docs.example.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	grant, err := broker.InitiateUpload(ctx, ownerID, "report.pdf", "application/pdf")
//	// client PUTs the bytes to grant.URL, then:
//	desc, err := broker.FinalizeUpload(ctx, ownerID, docvault.FinalizeRequest{
//	    StorageKey:  grant.StorageKey,
//	    FileName:    "report.pdf",
//	    SizeBytes:   n,
//	    ContentType: "application/pdf",
//	})
//
// See the http package for the REST surface, the database packages for
// metadata backends and the gateway packages for blob store integrations.
package docvault
