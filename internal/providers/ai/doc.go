// Package ai routes single-prompt completions to one of a closed set of
// LLM providers.
//
// Providers:
//   - grok: xAI, OpenAI-compatible API (openai-go with a custom base URL)
//   - openai: OpenAI (openai-go)
//   - claude: Anthropic Messages API (anthropic-sdk-go)
//   - deepseek: DeepSeek, OpenAI-compatible API
//
// An unknown provider name is an error (ErrUnknownProvider). A known
// provider with no API key answers with NoKeyMessage instead of failing, so
// a terminal user sees a readable hint.
//
// Example Usage:
//
//	assistant := ai.New(keys, ai.Options{Logger: logger})
//	reply, err := assistant.Complete(ctx, "claude", "explain `tar -xzf`")
package ai
