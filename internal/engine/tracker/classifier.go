package tracker

import (
	"go.trai.ch/subdiv/internal/core/domain"
)

// Classifier decides which dirty tier a change notification touches.
// Anything it cannot place is treated as structural.
type Classifier struct {
	fallback   domain.ChangeClass
	attributes map[string]domain.ChangeClass
}

// NewClassifier builds a classifier from a decision table.
func NewClassifier(cfg domain.ClassifierConfig) *Classifier {
	c := &Classifier{
		fallback:   cfg.Default,
		attributes: make(map[string]domain.ChangeClass, len(cfg.Attributes)),
	}
	if !known(c.fallback) {
		c.fallback = domain.ClassTopology
	}
	for name, class := range cfg.Attributes {
		if known(class) {
			c.attributes[name] = class
		}
	}
	return c
}

func known(c domain.ChangeClass) bool {
	switch c {
	case domain.ClassIgnore, domain.ClassAttributes, domain.ClassTopology:
		return true
	default:
		return false
	}
}

// Classify returns the class of ev.
func (c *Classifier) Classify(ev domain.ChangeEvent) domain.ChangeClass {
	switch ev.Kind {
	case domain.ChangeTopologyEdit, domain.ChangeUnknown:
		return domain.ClassTopology
	}
	if class, ok := c.attributes[ev.Attribute]; ok {
		return class
	}
	return c.fallback
}
