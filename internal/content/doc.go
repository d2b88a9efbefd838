// Package content defines the boundary to the external exercise-generation
// collaborator (quiz and dialogue content). No generator is shipped here;
// callers wrap whatever implementation they have in a Guard so that
// collaborator failures surface as domain.ErrUpstreamUnavailable.
package content
