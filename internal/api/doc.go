// Package api serves the gallery over a local HTTP JSON interface.
//
// It is the command surface a browser UI talks to. Every request that reads
// or mutates the repository holds the server mutex, so mutations are applied
// one at a time.
//
// # Endpoints
//
//	GET    /health
//	GET    /api/items?filter=favorites|uncategorized|category:<name>|tag:<tag>
//	POST   /api/items                    {"imageData", "note", "tags" | "tagText"}
//	GET    /api/items/{id}
//	PUT    /api/items/{id}               {"note", "tags", "category"}
//	DELETE /api/items/{id}
//	GET    /api/items/{id}/note          note rendered as markdown
//	POST   /api/items/{id}/favorite
//	POST   /api/items/{id}/move          {"index"}
//	GET    /api/categories
//	POST   /api/categories               {"name"}
//	PUT    /api/categories/{name}        {"name"}
//	DELETE /api/categories/{name}
//	GET    /api/tags
//	GET    /api/export
//	POST   /api/import                   export document as the body
//
// Errors are returned as {"error": "..."} with 400 for validation failures,
// 404 for unknown ids, 409 for duplicate categories and 500 for storage
// failures. A 500 after a mutation means the change was applied in memory
// but not saved.
package api
