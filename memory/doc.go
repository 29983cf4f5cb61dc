// Package memory remembers executed wallet actions so the assistant can
// draw on them in later conversations.
//
// Every executed action produces a core.Trace. The Manager decides which
// traces are worth keeping, embeds them and writes them to a vector Store.
// Before each completion the Manager retrieves the traces most similar to
// the user's message and formats them for the system prompt.
//
// Memories are namespaced by wallet address.
//
// Implementations shipped here:
//   - store/chromem: embedded chromem-go vector store, optionally persisted to disk
//   - embedder/hashing: offline feature-hashing embedder
//   - embedder/openai: any OpenAI-compatible embeddings endpoint
package memory
