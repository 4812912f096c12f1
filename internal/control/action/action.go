// Package action provides the actions key input is mapped to.
package action

// Action is something that can be done on request and explained, e.g. for
// help texts.
type Action interface {
	Do()
	Explain() string
}
