// Package services holds cross-cutting support for external collaborators:
// the stage error taxonomy and context annotation helpers shared by every
// tool-invoking package.
package services
