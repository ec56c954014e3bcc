// Copyright (c) 2025 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

// Package lifecycle provides application lifecycle management abstractions.
package lifecycle

import (
	"context"
)

type (
	// Starter is Service which can be started.
	Starter interface {
		// Start starts the service
		Start(context.Context) error
	}

	// Stopper is Service which can be stopped.
	Stopper interface {
		// Stop stops the service
		Stop(context.Context) error
	}

	// StartStopper is Service which can be started and stopped.
	StartStopper interface {
		Starter
		Stopper
	}
)

// Lifecycle manages services' lifecycles.
type Lifecycle struct {
	models []interface{}
}

// Add adds a model into the lifecycle.
func (lc *Lifecycle) Add(m interface{}) { lc.models = append(lc.models, m) }

// AddModels adds multiple models into the lifecycle.
func (lc *Lifecycle) AddModels(m ...interface{}) { lc.models = append(lc.models, m...) }

// OnStart runs Start of all models in the order they were added.
func (lc *Lifecycle) OnStart(ctx context.Context) error {
	for _, m := range lc.models {
		if starter, ok := m.(Starter); ok {
			if err := starter.Start(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnStop runs Stop of all models in reverse order, returning the first error.
func (lc *Lifecycle) OnStop(ctx context.Context) error {
	var err error
	for i := len(lc.models) - 1; i >= 0; i-- {
		if stopper, ok := lc.models[i].(Stopper); ok {
			if e := stopper.Stop(ctx); e != nil && err == nil {
				err = e
			}
		}
	}
	return err
}
