// Package migrate moves data from the legacy flat store into the embedded
// store.
//
// The legacy layout keeps the whole collection as one JSON document under a
// single key ({"items": [...], "categories": [...]}). Migration runs once at
// startup: detect the key, ask the user, write the parsed collection through
// the repository, then clear the key. The key is only cleared after the write
// succeeds, so a failed or corrupt migration can be retried.
package migrate
