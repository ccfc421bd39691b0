/*
Package reply provides ports.ReplyGenerator implementations.

OpenAI talks to the OpenAI or Azure OpenAI chat completion API. Scripted and Func are
deterministic generators for tests and offline demos. RateLimited, WithTimeout and WithRetry
wrap any generator.
*/
package reply
