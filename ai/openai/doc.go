// Package openai implements the ai.Embedder interface using the langchaingo
// OpenAI client. It works against any OpenAI-compatible embeddings endpoint,
// including local servers such as Ollama that don't require authentication.
package openai
