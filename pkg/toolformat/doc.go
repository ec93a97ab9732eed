// Package toolformat converts catalog tools into the tool-calling schema
// of each consuming AI provider. Field names and nesting are part of the
// provider contracts; every transform here is pure and stateless.
package toolformat
