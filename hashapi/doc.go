// Package hashapi provides a client for the hash sharing XML API.
//
// The service exchanges perceptual hashes ("fingerprints") of known exploitative
// media between members. This package authenticates with HTTP Basic credentials,
// fetches XML documents and decodes them into typed records.
//
// # Architecture
//
//   - Client: the API façade (Status, GetEntries, GetEntriesIter, Post)
//   - Transport: retrying GET via go-retryablehttp, single-shot POST, namespace stripping
//   - Decoders: pure functions from an xmlnode tree to StatusResult / EntriesPage
//   - Environments: the table of known deployments
//
// # Usage
//
//	logger := zerolog.New(os.Stdout)
//	client, err := hashapi.NewClientForEnvironment(
//		hashapi.EnvTestIndustry,
//		"username",
//		"password",
//		logger,
//		hashapi.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for page, err := range client.GetEntriesIter(ctx, since.Unix()) {
//		if err != nil {
//			log.Fatal(err)
//		}
//		for _, update := range page.Updates {
//			// hand off to the matching pipeline
//		}
//		checkpoint = page.MaxTimestamp
//	}
//
// Pages are fetched strictly one after another; the cursor for the next page is
// only known once the current one is decoded. Keep the MaxTimestamp of the last
// page you fully processed and pass it as the start timestamp to resume.
//
// # Retries
//
// GET requests are retried on 429, 500, 502, 503, 504 and on connection failures,
// four attempts in total with 0.2s, 0.4s and 0.8s between them. Each attempt has
// its own 60 second timeout. POST requests are sent once.
//
// # Error Handling
//
//   - ErrMalformedResponse: the document lacks a required element, attribute or text
//   - TransportError: non-2xx status after retries, or a network failure
//   - ErrInvalidConfig: bad constructor arguments or unknown environment
//
// A malformed page aborts the whole call or iteration:
//
//	var terr *hashapi.TransportError
//	if errors.As(err, &terr) && terr.IsUnauthorized() {
//		// credentials rejected
//	}
package hashapi
