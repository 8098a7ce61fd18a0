// Package model contains the in-memory representation of onboarding
// threads, environments, evidence and supporting types used by the engine.
//
// A thread is typically loaded from a JSON document into these structures by
// the stores under service/dao; the model package itself holds pure data
// with no persistence or decision logic.
package model
