// Package vercel attaches and detaches custom domains on a Vercel project.
//
// Both calls are idempotent: attaching a domain the project already has
// (HTTP 409 or error code "domain_already_in_use") and detaching a domain
// the project does not have (HTTP 404) are reported as success.
//
//	client := vercel.New(vercel.Config{
//		Token:     os.Getenv("VERCEL_TOKEN"),
//		ProjectID: os.Getenv("VERCEL_PROJECT_ID"),
//	})
//	if err := client.Attach(ctx, "blog.example.com"); err != nil {
//		if errors.Is(err, vercel.ErrNotConfigured) {
//			// no token or project, nothing to do
//		}
//	}
//
// Errors:
//
//   - [ErrNotConfigured] - token or project id missing
//   - [ErrInvalidDomain] - empty domain
//   - [ErrRequestFailed] - transport failure or unexpected response; an
//     [*APIError] in the chain carries the status and API error code
package vercel
