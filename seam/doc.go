// Package seam is a small client for the Seam smart-lock HTTP API.
//
// It covers the endpoints the seammcp tools need: listing and reading locks,
// issuing lock/unlock commands, and managing access codes. Every call is a
// JSON POST authenticated with a static API key. The client never retries;
// failures are returned as *APIError (non-2xx responses) or wrapped transport
// errors.
//
// Example:
//
//	cli, err := seam.New(os.Getenv("SEAM_API_KEY"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	locks, err := cli.ListLocks(ctx)
//
// Optional request fields are pointers; nil fields are omitted from the request
// body so the server applies its own defaults. Use OptString to turn possibly
// blank user input into an optional field.
package seam
