// Package chat answers investor questions grounded in a project's documents.
//
// A Service resolves the link and conversation, retrieves the most relevant
// chunks, assembles them into a system prompt, routes the completion to the
// provider family serving the requested model, and records the exchange.
package chat
