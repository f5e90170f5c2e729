// Package core defines the domain model shared by every other package:
// the partially trusted RawItem shape returned by the source API, the
// canonical Record persisted to the vector store, and the Normalize
// function that turns one into the other.
package core
