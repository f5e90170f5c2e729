// Package civitai implements the paginated source client for the Civitai
// images API. One call fetches one page; the opaque cursor in the response
// metadata drives pagination and an empty cursor signals end-of-stream.
package civitai
